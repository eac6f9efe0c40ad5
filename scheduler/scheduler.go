// Package scheduler runs the service's background jobs: expiring idle wizard
// sessions, refreshing the drug suggestion catalog, and watching that both
// keep happening.
package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/medsafe/interfaces"
	"github.com/giygas/medsafe/logging"
	"github.com/giygas/medsafe/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// catalogRefreshTimes are the daily catalog reload times
const catalogRefreshTimes = "06:00;18:00"

// Scheduler handles session sweeps and catalog refreshes using dependency injection
type Scheduler struct {
	sessions      interfaces.SessionStore
	catalog       interfaces.CatalogStore
	loader        interfaces.CatalogLoader
	sweepInterval time.Duration
	scheduler     *gocron.Scheduler
	done          chan struct{}
}

// NewScheduler creates a scheduler. loader may be nil to disable the catalog jobs.
func NewScheduler(sessions interfaces.SessionStore, catalog interfaces.CatalogStore, loader interfaces.CatalogLoader, sweepInterval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()

	return &Scheduler{
		sessions:      sessions,
		catalog:       catalog,
		loader:        loader,
		sweepInterval: sweepInterval,
		scheduler:     s,
		done:          make(chan struct{}),
	}
}

// Start loads the catalog once, then schedules the recurring jobs
func (s *Scheduler) Start() error {
	if s.loader != nil && s.catalog != nil {
		// Suggestions stay empty until the next scheduled refresh succeeds
		if err := s.refreshCatalog(); err != nil {
			logging.Error("Failed to perform initial catalog load, starting with an empty catalog", "error", err)
		}

		if _, err := s.scheduler.Every(1).Days().At(catalogRefreshTimes).Do(func() {
			if err := s.refreshCatalog(); err != nil {
				logging.Error("Failed to refresh catalog", "error", err)
			}
		}); err != nil {
			logging.Error("Failed to schedule catalog refresh", "error", err)
			return fmt.Errorf("failed to schedule catalog refresh: %w", err)
		}
	}

	if _, err := s.scheduler.Every(s.sweepInterval).Do(func() {
		s.sweepSessions(time.Now())
	}); err != nil {
		logging.Error("Failed to schedule session sweep", "error", err)
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	s.scheduler.StartAsync()
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler and the health monitor
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// sweepSessions removes sessions expired as of now and refreshes the session gauge
func (s *Scheduler) sweepSessions(now time.Time) int {
	removed := s.sessions.Sweep(now)
	remaining := s.sessions.Len()
	metrics.WizardActiveSessions.Set(float64(remaining))

	if removed > 0 {
		logging.Info("Expired wizard sessions removed", "removed", removed, "remaining", remaining)
	}
	return removed
}

// refreshCatalog reloads the suggestion catalog; overlapping refreshes are skipped
func (s *Scheduler) refreshCatalog() error {
	if !s.catalog.BeginUpdate() {
		logging.Info("Catalog refresh already in progress, skipping...")
		return nil
	}
	defer s.catalog.EndUpdate()

	start := time.Now()

	names, err := s.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if len(names) == 0 && s.catalog.Len() > 0 {
		logging.Warn("Catalog source is empty, keeping previous catalog", "previous_count", s.catalog.Len())
		return nil
	}

	s.catalog.Replace(names)
	metrics.CatalogEntries.Set(float64(len(names)))

	logging.Info("Catalog refresh completed", "duration", time.Since(start).String(), "drug_count", len(names))
	return nil
}

// startHealthMonitoring warns when the session sweep stops running
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(s.sweepInterval * 3)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				if staleSweep(s.sessions.LastSweep(), s.sweepInterval, time.Now()) {
					logging.Warn("Session sweep has not run recently", "last_sweep", s.sessions.LastSweep())
				}
			}
		}
	}()
}

// staleSweep reports whether more than three sweep intervals passed since lastSweep
func staleSweep(lastSweep time.Time, interval time.Duration, now time.Time) bool {
	return now.Sub(lastSweep) > 3*interval
}

// NextCatalogRefresh returns the next scheduled catalog reload after now
func NextCatalogRefresh(now time.Time) time.Time {
	sixAM := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	sixPM := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())

	if now.Before(sixAM) {
		return sixAM
	}
	if now.Before(sixPM) {
		return sixPM
	}
	return sixAM.AddDate(0, 0, 1)
}
