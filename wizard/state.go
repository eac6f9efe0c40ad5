// Package wizard implements the drug-count form wizard: the session state,
// its three views and the transitions between them.
//
// The wizard moves through CountEntry -> NameEntry -> Result and back to
// CountEntry on start-over. Every transition is a function of the current
// State and user input; it returns the next State or an error and never
// mutates its argument.
package wizard

import "fmt"

// View is one mutually exclusive wizard step
type View int

const (
	// ViewCountEntry shows the drug-count popup (initial view)
	ViewCountEntry View = iota
	// ViewNameEntry shows one name input per drug
	ViewNameEntry
	// ViewResult shows the safety disclaimer
	ViewResult
)

var viewNames = map[View]string{
	ViewCountEntry: "count-entry",
	ViewNameEntry:  "name-entry",
	ViewResult:     "result",
}

func (v View) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// MarshalText encodes the view by name
func (v View) MarshalText() ([]byte, error) {
	name, ok := viewNames[v]
	if !ok {
		return nil, fmt.Errorf("unknown view %d", int(v))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a view name
func (v *View) UnmarshalText(text []byte) error {
	for view, name := range viewNames {
		if name == string(text) {
			*v = view
			return nil
		}
	}
	return fmt.Errorf("unknown view %q", string(text))
}

// State is the per-session wizard state
type State struct {
	View View `json:"view"`
	// Count is the number of drugs accepted by the last count submission
	Count int `json:"count"`
	// CountInput is the value displayed in the count field
	CountInput string `json:"count_input"`
	// Names holds the drug name entries while the name-entry view is visible
	Names []string `json:"names,omitempty"`
}

// NewState returns the initial state: count entry with an empty count field
func NewState() State {
	return State{View: ViewCountEntry}
}

// clone returns a copy that shares no memory with s
func (s State) clone() State {
	if s.Names != nil {
		names := make([]string, len(s.Names))
		copy(names, s.Names)
		s.Names = names
	}
	return s
}
