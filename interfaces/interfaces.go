// Package interfaces defines core abstractions for the MedSafe wizard service
// to improve testability and separation of concerns.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/medsafe/wizard"
)

// SessionEntry is everything the server keeps for one browser session
type SessionEntry struct {
	ID    string
	State wizard.State
	// Alert is a pending blocking dialog message, shown once then cleared
	Alert string
	// Drafts are name values submitted with a rejected safety check, re-filled into the inputs
	Drafts    []string
	CreatedAt time.Time
	LastSeen  time.Time
}

// SessionStore defines the contract for wizard session storage.
// Implementations must be safe for concurrent use; Update runs fn with
// exclusive access to the entry so transitions of one session are serialised.
type SessionStore interface {
	Create() SessionEntry
	Get(id string) (SessionEntry, bool)
	Update(id string, fn func(entry *SessionEntry) error) error
	Delete(id string)

	// Sweep removes sessions idle since before now minus the TTL and returns how many were removed
	Sweep(now time.Time) int
	Len() int
	LastSweep() time.Time
}

// CatalogStore defines the contract for the drug name suggestion catalog.
// It provides thread-safe reads with atomic snapshot replacement.
type CatalogStore interface {
	Suggest(prefix string, limit int) []string
	Names() []string
	Len() int
	LastUpdated() time.Time

	Replace(names []string)
	BeginUpdate() bool
	EndUpdate()
	IsUpdating() bool
}

// CatalogLoader reads drug names from an external source
type CatalogLoader interface {
	Load() ([]string, error)
}

// Scheduler defines the contract for background job scheduling.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the status string, response details and the HTTP status to answer with
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// InputValidator defines the contract for user input validation.
type InputValidator interface {
	// ParseCount parses the raw drug count field
	ParseCount(raw string) (int, error)
	// MaxCount returns the largest accepted drug count
	MaxCount() int
	// ValidateQuery checks a suggestion search query
	ValidateQuery(input string) error
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	// Wizard page and transitions
	ServeWizard(w http.ResponseWriter, r *http.Request)
	SubmitCount(w http.ResponseWriter, r *http.Request)
	CheckSafety(w http.ResponseWriter, r *http.Request)
	StartOver(w http.ResponseWriter, r *http.Request)

	// V1 JSON handlers
	ServeFieldsV1(w http.ResponseWriter, r *http.Request)
	ServeDrugsV1(w http.ResponseWriter, r *http.Request)
	ServeSessionV1(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
}
