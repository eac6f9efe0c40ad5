// Package health provides health checking functionality for the MedSafe wizard service.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/medsafe/interfaces"
	"github.com/giygas/medsafe/scheduler"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	sessions       interfaces.SessionStore
	catalog        interfaces.CatalogStore
	catalogEnabled bool
	sweepInterval  time.Duration
	startTime      time.Time
	now            func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(sessions interfaces.SessionStore, catalog interfaces.CatalogStore, catalogEnabled bool, sweepInterval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		sessions:       sessions,
		catalog:        catalog,
		catalogEnabled: catalogEnabled && catalog != nil,
		sweepInterval:  sweepInterval,
		startTime:      time.Now(),
		now:            time.Now,
	}
}

// HealthCheck returns the health status used by the /health endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	now := h.now()
	uptime := now.Sub(h.startTime)
	lastSweep := h.sessions.LastSweep()

	// No sweep is expected before the first interval has elapsed
	sweepLate := uptime > 3*h.sweepInterval && now.Sub(lastSweep) > 3*h.sweepInterval

	catalogEntries := 0
	catalogUpdating := false
	if h.catalogEnabled {
		catalogEntries = h.catalog.Len()
		catalogUpdating = h.catalog.IsUpdating()
	}

	switch {
	case sweepLate:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case h.catalogEnabled && catalogEntries == 0 && !catalogUpdating:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"uptime_seconds":  math.Round(uptime.Seconds()),
		"active_sessions": h.sessions.Len(),
		"catalog_enabled": h.catalogEnabled,
		"catalog_entries": catalogEntries,
	}
	if !lastSweep.IsZero() {
		data["last_sweep"] = lastSweep.Format(time.RFC3339)
	}
	if h.catalogEnabled {
		data["catalog_updating"] = catalogUpdating
		data["next_catalog_refresh"] = scheduler.NextCatalogRefresh(now).Format(time.RFC3339)
		if updated := h.catalog.LastUpdated(); !updated.IsZero() {
			data["catalog_last_update"] = updated.Format(time.RFC3339)
		}
	}

	return status, data, httpStatus
}
