package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/giygas/medsafe/logging"
	"github.com/giygas/medsafe/session"
	"github.com/giygas/medsafe/validation"
	"github.com/giygas/medsafe/wizard"
	"github.com/go-chi/chi/v5"
)

const (
	defaultDrugsLimit = 10
	maxDrugsLimit     = 50
)

// FieldsResponse is the body of GET /api/v1/fields/{count}
type FieldsResponse struct {
	Layout wizard.Layout      `json:"layout"`
	Diff   *wizard.LayoutDiff `json:"diff,omitempty"`
}

// DrugsResponse is the body of GET /api/v1/drugs
type DrugsResponse struct {
	Query   string   `json:"query"`
	Results []string `json:"results"`
	Count   int      `json:"count"`
}

// SessionResponse is the body of GET /api/v1/session
type SessionResponse struct {
	State     wizard.State  `json:"state"`
	Layout    wizard.Layout `json:"layout"`
	Alert     string        `json:"alert,omitempty"`
	CreatedAt string        `json:"created_at,omitempty"`
	LastSeen  string        `json:"last_seen,omitempty"`
}

// ServeFieldsV1 returns the name-entry layout for a count. With ?from=N the
// response also carries the diff from the layout for N.
func (h *HTTPHandlerImpl) ServeFieldsV1(w http.ResponseWriter, r *http.Request) {
	count, err := h.validator.ParseCount(chi.URLParam(r, "count"))
	if err != nil {
		logging.Warn("Unusual user input", "count", chi.URLParam(r, "count"))
		h.RespondWithError(w, http.StatusBadRequest, countErrorMessage(err, h.validator.MaxCount()))
		return
	}

	response := FieldsResponse{Layout: wizard.Fields(count)}

	if from := r.URL.Query().Get("from"); from != "" {
		fromCount, err := h.validator.ParseCount(from)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, "Invalid from parameter: "+countErrorMessage(err, h.validator.MaxCount()))
			return
		}
		diff := wizard.Diff(wizard.Fields(fromCount), response.Layout)
		response.Diff = &diff
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

// ServeDrugsV1 returns catalog names starting with ?q=, case-insensitively
func (h *HTTPHandlerImpl) ServeDrugsV1(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query != "" {
		if err := h.validator.ValidateQuery(query); err != nil {
			logging.Warn("Unusual user input", "q", query, "error", err)
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	limit := defaultDrugsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxDrugsLimit {
			h.RespondWithError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxDrugsLimit))
			return
		}
		limit = n
	}

	results := h.suggest(validation.NormalizeName(query), limit)

	h.RespondWithJSON(w, http.StatusOK, DrugsResponse{
		Query:   query,
		Results: results,
		Count:   len(results),
	})
}

// ServeSessionV1 returns the caller's wizard state without consuming the alert
func (h *HTTPHandlerImpl) ServeSessionV1(w http.ResponseWriter, r *http.Request) {
	id := session.IDFromContext(r.Context())
	if id == "" {
		state := wizard.NewState()
		h.RespondWithJSON(w, http.StatusOK, SessionResponse{State: state, Layout: h.controller.Layout(state)})
		return
	}

	entry, ok := h.sessions.Get(id)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Session not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, SessionResponse{
		State:     entry.State,
		Layout:    h.controller.Layout(entry.State),
		Alert:     entry.Alert,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		LastSeen:  entry.LastSeen.Format(time.RFC3339),
	})
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.health.HealthCheck()

	response := map[string]any{"status": status}
	for k, v := range details {
		response[k] = v
	}

	h.RespondWithJSON(w, httpStatus, response)
}

func countErrorMessage(err error, max int) string {
	if errors.Is(err, validation.ErrTooLarge) {
		return "count must be between 0 and " + strconv.Itoa(max)
	}
	return "count must be an integer >= 0"
}
