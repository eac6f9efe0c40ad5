package wizard

import (
	"errors"
	"fmt"

	"github.com/giygas/medsafe/validation"
)

// Transition names used in logs and metrics
const (
	TransitionSubmitCount = "submit_count"
	TransitionCheckSafety = "check_safety"
	TransitionStartOver   = "start_over"
)

// Controller drives the wizard state machine. It holds configuration only;
// the state is passed in and returned by every transition.
type Controller struct {
	maxCount int
}

// NewController creates a controller accepting drug counts up to maxCount.
// A maxCount <= 0 disables the upper bound.
func NewController(maxCount int) *Controller {
	return &Controller{maxCount: maxCount}
}

// MaxCount returns the largest accepted drug count
func (c *Controller) MaxCount() int {
	return c.maxCount
}

// SubmitCount parses the raw count field and moves to the name-entry view
func (c *Controller) SubmitCount(s State, raw string) (State, error) {
	if s.View != ViewCountEntry {
		return s, transitionError(TransitionSubmitCount, s.View)
	}

	count, err := validation.ParseCount(raw, c.maxCount)
	if err != nil {
		if errors.Is(err, validation.ErrTooLarge) {
			return s, &AlertError{
				Message: fmt.Sprintf(msgTooManyFmt, c.maxCount),
				Err:     ErrTooManyDrugs,
				Cause:   err,
			}
		}
		return s, &AlertError{Message: MsgInvalidCount, Err: ErrInvalidCount, Cause: err}
	}

	return State{
		View:       ViewNameEntry,
		Count:      count,
		CountInput: raw,
		Names:      make([]string, count),
	}, nil
}

// CheckSafety validates the entered names and moves to the result view.
// Names are read in field order; only the first Count entries matter.
// The names are not retained once the result view is shown.
func (c *Controller) CheckSafety(s State, names []string) (State, error) {
	if s.View != ViewNameEntry {
		return s, transitionError(TransitionCheckSafety, s.View)
	}

	if s.Count > 0 {
		if missing := validation.MissingNames(names, s.Count); len(missing) > 0 {
			return s, &AlertError{
				Message: MsgMissingNames,
				Err:     ErrMissingNames,
				Cause:   fmt.Errorf("blank fields %v", missing),
			}
		}
	}

	next := s.clone()
	next.View = ViewResult
	next.Names = nil
	return next, nil
}

// StartOver returns to the count-entry view with the count field set to "0"
// and the count and name entries cleared.
func (c *Controller) StartOver(s State) (State, error) {
	if s.View != ViewResult {
		return s, transitionError(TransitionStartOver, s.View)
	}

	return State{
		View:       ViewCountEntry,
		Count:      0,
		CountInput: "0",
		Names:      nil,
	}, nil
}

// Layout returns the name-entry layout for s
func (c *Controller) Layout(s State) Layout {
	return Fields(s.Count)
}
