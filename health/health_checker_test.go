package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/giygas/medsafe/catalog"
	"github.com/giygas/medsafe/interfaces"
)

// mockSessionStore reports a fixed size and last sweep
type mockSessionStore struct {
	count     int
	lastSweep time.Time
}

func (m *mockSessionStore) Create() interfaces.SessionEntry { return interfaces.SessionEntry{} }
func (m *mockSessionStore) Get(id string) (interfaces.SessionEntry, bool) {
	return interfaces.SessionEntry{}, false
}
func (m *mockSessionStore) Update(id string, fn func(entry *interfaces.SessionEntry) error) error {
	return nil
}
func (m *mockSessionStore) Delete(id string) {}
func (m *mockSessionStore) Sweep(now time.Time) int { return 0 }
func (m *mockSessionStore) Len() int { return m.count }
func (m *mockSessionStore) LastSweep() time.Time { return m.lastSweep }

func TestNewHealthChecker(t *testing.T) {
	healthChecker := NewHealthChecker(&mockSessionStore{}, nil, false, time.Minute)

	if healthChecker == nil {
		t.Fatal("NewHealthChecker returned nil")
	}
	impl, ok := healthChecker.(*HealthCheckerImpl)
	if !ok {
		t.Fatal("NewHealthChecker should return *HealthCheckerImpl")
	}
	if impl.catalogEnabled {
		t.Error("A nil catalog must not be reported as enabled")
	}
}

func TestHealthCheck(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	loaded := catalog.New()
	loaded.Replace([]string{"Aspirin", "Tylenol"})

	updating := catalog.New()
	updating.BeginUpdate()

	tests := []struct {
		name           string
		sessions       *mockSessionStore
		catalog        interfaces.CatalogStore
		catalogEnabled bool
		uptime         time.Duration
		wantStatus     string
		wantHTTP       int
	}{
		{
			name:       "fresh start before any sweep",
			sessions:   &mockSessionStore{},
			uptime:     30 * time.Second,
			wantStatus: "healthy",
			wantHTTP:   http.StatusOK,
		},
		{
			name:       "recent sweep",
			sessions:   &mockSessionStore{count: 4, lastSweep: start.Add(9 * time.Minute)},
			uptime:     10 * time.Minute,
			wantStatus: "healthy",
			wantHTTP:   http.StatusOK,
		},
		{
			name:       "sweep stalled",
			sessions:   &mockSessionStore{lastSweep: start.Add(time.Minute)},
			uptime:     10 * time.Minute,
			wantStatus: "degraded",
			wantHTTP:   http.StatusServiceUnavailable,
		},
		{
			name:           "catalog loaded",
			sessions:       &mockSessionStore{},
			catalog:        loaded,
			catalogEnabled: true,
			uptime:         time.Minute,
			wantStatus:     "healthy",
			wantHTTP:       http.StatusOK,
		},
		{
			name:           "catalog enabled but empty",
			sessions:       &mockSessionStore{},
			catalog:        catalog.New(),
			catalogEnabled: true,
			uptime:         time.Minute,
			wantStatus:     "degraded",
			wantHTTP:       http.StatusServiceUnavailable,
		},
		{
			name:           "catalog empty while first load runs",
			sessions:       &mockSessionStore{},
			catalog:        updating,
			catalogEnabled: true,
			uptime:         time.Minute,
			wantStatus:     "healthy",
			wantHTTP:       http.StatusOK,
		},
		{
			name:       "empty catalog ignored when disabled",
			sessions:   &mockSessionStore{},
			catalog:    catalog.New(),
			uptime:     time.Minute,
			wantStatus: "healthy",
			wantHTTP:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(tt.sessions, tt.catalog, tt.catalogEnabled, time.Minute).(*HealthCheckerImpl)
			h.startTime = start
			h.now = func() time.Time { return start.Add(tt.uptime) }

			status, details, httpStatus := h.HealthCheck()

			if status != tt.wantStatus {
				t.Errorf("Expected status %q, got %q", tt.wantStatus, status)
			}
			if httpStatus != tt.wantHTTP {
				t.Errorf("Expected HTTP %d, got %d", tt.wantHTTP, httpStatus)
			}
			if details["active_sessions"] != tt.sessions.count {
				t.Errorf("Expected active_sessions %d, got %v", tt.sessions.count, details["active_sessions"])
			}
			if details["uptime_seconds"] != tt.uptime.Seconds() {
				t.Errorf("Expected uptime_seconds %v, got %v", tt.uptime.Seconds(), details["uptime_seconds"])
			}
		})
	}
}

func TestHealthCheckDetails(t *testing.T) {
	cat := catalog.New()
	cat.Replace([]string{"Aspirin"})
	sweep := time.Now().Add(-10 * time.Second)

	_, details, _ := NewHealthChecker(&mockSessionStore{count: 2, lastSweep: sweep}, cat, true, time.Minute).HealthCheck()

	for _, key := range []string{"uptime_seconds", "active_sessions", "catalog_enabled", "catalog_entries", "last_sweep", "catalog_updating", "catalog_last_update", "next_catalog_refresh"} {
		if _, ok := details[key]; !ok {
			t.Errorf("Details should contain %q", key)
		}
	}
	if details["catalog_entries"] != 1 {
		t.Errorf("Expected catalog_entries 1, got %v", details["catalog_entries"])
	}
	if details["last_sweep"] != sweep.Format(time.RFC3339) {
		t.Errorf("Expected last_sweep %s, got %v", sweep.Format(time.RFC3339), details["last_sweep"])
	}
}

func TestHealthCheckOmitsMissingTimestamps(t *testing.T) {
	_, details, _ := NewHealthChecker(&mockSessionStore{}, nil, false, time.Minute).HealthCheck()

	for _, key := range []string{"last_sweep", "catalog_updating", "catalog_last_update"} {
		if _, ok := details[key]; ok {
			t.Errorf("Details should not contain %q", key)
		}
	}
}
