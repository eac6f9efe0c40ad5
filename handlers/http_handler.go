// Package handlers provides the HTTP handlers of the drug-count wizard: the
// server-rendered page, its form transitions and the v1 JSON endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/giygas/medsafe/interfaces"
	"github.com/giygas/medsafe/logging"
	"github.com/giygas/medsafe/metrics"
	"github.com/giygas/medsafe/session"
	"github.com/giygas/medsafe/validation"
	"github.com/giygas/medsafe/views"
	"github.com/giygas/medsafe/wizard"
)

// Compile-time checks
var (
	_ interfaces.HTTPHandler    = (*HTTPHandlerImpl)(nil)
	_ interfaces.InputValidator = (*validation.InputValidatorImpl)(nil)
)

// suggestionLimit caps the datalist rendered under the name inputs
const suggestionLimit = 500

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	sessions   interfaces.SessionStore
	controller *wizard.Controller
	validator  interfaces.InputValidator
	catalog    interfaces.CatalogStore
	health     interfaces.HealthChecker
	renderer   *views.Renderer
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	sessions interfaces.SessionStore,
	controller *wizard.Controller,
	validator interfaces.InputValidator,
	catalog interfaces.CatalogStore,
	health interfaces.HealthChecker,
	renderer *views.Renderer,
) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		sessions:   sessions,
		controller: controller,
		validator:  validator,
		catalog:    catalog,
		health:     health,
		renderer:   renderer,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Warn("Failed to write JSON response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// ServeWizard renders the current view of the caller's session and consumes
// any pending alert
func (h *HTTPHandlerImpl) ServeWizard(w http.ResponseWriter, r *http.Request) {
	id := session.IDFromContext(r.Context())

	var page views.Page
	if id == "" {
		// Visitor without a session sees the initial view
		page = h.page(&interfaces.SessionEntry{State: wizard.NewState()})
	} else {
		err := h.sessions.Update(id, func(entry *interfaces.SessionEntry) error {
			page = h.page(entry)
			entry.Alert = ""
			return nil
		})
		if err != nil {
			h.sessionError(w, r, err)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.Render(w, page); err != nil {
		logging.Error("Failed to render wizard page", "error", err, "view", page.View.String())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// SubmitCount handles the count form (field "drug-count")
func (h *HTTPHandlerImpl) SubmitCount(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	raw := r.PostForm.Get("drug-count")

	h.transition(w, r, wizard.TransitionSubmitCount, func(entry *interfaces.SessionEntry) (wizard.State, []string, error) {
		next, err := h.controller.SubmitCount(entry.State, raw)
		return next, nil, err
	})
}

// CheckSafety handles the name form (fields "drug-name-1".."drug-name-N")
func (h *HTTPHandlerImpl) CheckSafety(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	h.transition(w, r, wizard.TransitionCheckSafety, func(entry *interfaces.SessionEntry) (wizard.State, []string, error) {
		names := make([]string, entry.State.Count)
		drafts := make([]string, entry.State.Count)
		for i := range names {
			drafts[i] = r.PostForm.Get(wizard.FieldID(i + 1))
			names[i] = validation.NormalizeName(drafts[i])
		}

		next, err := h.controller.CheckSafety(entry.State, names)
		return next, drafts, err
	})
}

// StartOver handles the start over button
func (h *HTTPHandlerImpl) StartOver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, wizard.TransitionStartOver, func(entry *interfaces.SessionEntry) (wizard.State, []string, error) {
		next, err := h.controller.StartOver(entry.State)
		return next, nil, err
	})
}

// transitionFunc runs one wizard transition on the session entry. It returns
// the next state, the draft values to keep if the transition is rejected,
// and the transition error.
type transitionFunc func(entry *interfaces.SessionEntry) (wizard.State, []string, error)

// transition applies fn to the caller's session and redirects back to the page.
// Rejected transitions keep the state; alerts are stored for the next render.
func (h *HTTPHandlerImpl) transition(w http.ResponseWriter, r *http.Request, name string, fn transitionFunc) {
	id := session.IDFromContext(r.Context())

	err := h.sessions.Update(id, func(entry *interfaces.SessionEntry) error {
		next, drafts, err := fn(entry)

		if err == nil {
			logging.Debug("Wizard transition", "transition", name, "from", entry.State.View.String(), "to", next.View.String())
			entry.State = next
			entry.Alert = ""
			entry.Drafts = nil
			metrics.RecordTransition(name, metrics.OutcomeAccepted)
			return nil
		}

		if msg, ok := wizard.AlertMessage(err); ok {
			logging.Info("Wizard transition rejected", "transition", name, "view", entry.State.View.String(), "reason", err.Error())
			entry.Alert = msg
			entry.Drafts = drafts
			metrics.RecordTransition(name, metrics.OutcomeAlert)
			return nil
		}

		if errors.Is(err, wizard.ErrInvalidTransition) {
			logging.Warn("Invalid wizard transition", "transition", name, "error", err)
			metrics.RecordTransition(name, metrics.OutcomeInvalid)
			return nil
		}

		return err
	})
	if err != nil {
		h.sessionError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// page builds the template data for the session entry
func (h *HTTPHandlerImpl) page(entry *interfaces.SessionEntry) views.Page {
	page := views.Page{
		View:       entry.State.View,
		CountInput: entry.State.CountInput,
		MaxCount:   h.controller.MaxCount(),
		Layout:     h.controller.Layout(entry.State),
		Alert:      entry.Alert,
		Disclaimer: wizard.Disclaimer(),
	}

	if entry.State.View == wizard.ViewNameEntry {
		page.Drafts = entry.Drafts
		page.Suggestions = h.suggest("", suggestionLimit)
	}

	return page
}

// suggest returns catalog names starting with prefix; an empty prefix lists
// the first names of the catalog
func (h *HTTPHandlerImpl) suggest(prefix string, limit int) []string {
	if h.catalog == nil {
		return []string{}
	}
	if prefix == "" {
		names := h.catalog.Names()
		if names == nil {
			return []string{}
		}
		if len(names) > limit {
			names = names[:limit]
		}
		return names
	}
	return h.catalog.Suggest(prefix, limit)
}

// parseForm parses the request body, answering 413 or 400 on failure
func (h *HTTPHandlerImpl) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			http.Error(w, "Request entity too large", http.StatusRequestEntityTooLarge)
			return false
		}
		logging.Warn("Failed to parse form", "path", r.URL.Path, "error", err)
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return false
	}
	return true
}

// sessionError handles a failed session lookup or update. A vanished session
// is recreated by the session middleware on the next request.
func (h *HTTPHandlerImpl) sessionError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, session.ErrNotFound) {
		logging.Info("Session expired during request", "path", r.URL.Path)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	logging.Error("Session update failed", "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
