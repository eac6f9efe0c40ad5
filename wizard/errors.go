package wizard

import (
	"errors"
	"fmt"
)

// User-facing alert messages
const (
	MsgInvalidCount = "Please enter a valid number (0 or greater)."
	MsgMissingNames = "Please enter the name for all listed drugs."
	msgTooManyFmt   = "Please enter a number no greater than %d."
)

var (
	// ErrInvalidCount means the count was not a non-negative integer
	ErrInvalidCount = errors.New("invalid drug count")
	// ErrTooManyDrugs means the count exceeded the configured maximum
	ErrTooManyDrugs = errors.New("too many drugs")
	// ErrMissingNames means at least one drug name was blank
	ErrMissingNames = errors.New("missing drug names")
	// ErrInvalidTransition means the action is not available from the current view
	ErrInvalidTransition = errors.New("invalid wizard transition")
)

// AlertError is a rejected transition that must be shown to the user as a
// blocking dialog. The state is left unchanged.
type AlertError struct {
	// Message is the literal text shown to the user
	Message string
	// Err is one of the package sentinel errors
	Err error
	// Cause is the underlying validation error, if any
	Cause error
}

func (e *AlertError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", e.Err, e.Cause)
	}
	return e.Err.Error()
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As
func (e *AlertError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// AlertMessage returns the user-facing message carried by err, if any
func AlertMessage(err error) (string, bool) {
	var alert *AlertError
	if errors.As(err, &alert) {
		return alert.Message, true
	}
	return "", false
}

func transitionError(action string, from View) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
}
