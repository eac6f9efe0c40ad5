package wizard

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewStateStartsOnCountEntry(t *testing.T) {
	s := NewState()
	if s.View != ViewCountEntry {
		t.Errorf("expected count-entry view, got %s", s.View)
	}
	if s.Count != 0 || s.Names != nil {
		t.Errorf("expected empty state, got %+v", s)
	}
}

func TestSubmitCount(t *testing.T) {
	c := NewController(50)

	tests := []struct {
		name      string
		raw       string
		want      State
		wantErr   error
		wantAlert string
	}{
		{
			name: "three drugs",
			raw:  "3",
			want: State{View: ViewNameEntry, Count: 3, CountInput: "3", Names: []string{"", "", ""}},
		},
		{
			name: "zero drugs",
			raw:  "0",
			want: State{View: ViewNameEntry, Count: 0, CountInput: "0", Names: []string{}},
		},
		{name: "letters", raw: "abc", wantErr: ErrInvalidCount, wantAlert: MsgInvalidCount},
		{name: "empty", raw: "", wantErr: ErrInvalidCount, wantAlert: MsgInvalidCount},
		{name: "decimal", raw: "3.5", wantErr: ErrInvalidCount, wantAlert: MsgInvalidCount},
		{name: "negative", raw: "-1", wantErr: ErrInvalidCount, wantAlert: MsgInvalidCount},
		{name: "above maximum", raw: "51", wantErr: ErrTooManyDrugs, wantAlert: "Please enter a number no greater than 50."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := NewState()
			got, err := c.SubmitCount(start, tt.raw)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				msg, ok := AlertMessage(err)
				if !ok || msg != tt.wantAlert {
					t.Errorf("expected alert %q, got %q (%v)", tt.wantAlert, msg, ok)
				}
				if diff := cmp.Diff(start, got); diff != "" {
					t.Errorf("state changed on rejection (-want +got):\n%s", diff)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SubmitCount() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckSafety(t *testing.T) {
	c := NewController(50)
	nameEntry, err := c.SubmitCount(NewState(), "3")
	if err != nil {
		t.Fatalf("SubmitCount: %v", err)
	}

	blanks := [][]string{
		{"", "Tylenol", "Ibuprofen"},
		{"Aspirin", "", "Ibuprofen"},
		{"Aspirin", "Tylenol", ""},
		{"Aspirin", "   ", "Ibuprofen"},
		{"Aspirin", "Tylenol"},
		nil,
	}
	for i, names := range blanks {
		t.Run(fmt.Sprintf("blank_%d", i), func(t *testing.T) {
			got, err := c.CheckSafety(nameEntry, names)
			if !errors.Is(err, ErrMissingNames) {
				t.Fatalf("expected ErrMissingNames, got %v", err)
			}
			if msg, _ := AlertMessage(err); msg != MsgMissingNames {
				t.Errorf("expected alert %q, got %q", MsgMissingNames, msg)
			}
			if diff := cmp.Diff(nameEntry, got); diff != "" {
				t.Errorf("state changed on rejection (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("all names filled", func(t *testing.T) {
		got, err := c.CheckSafety(nameEntry, []string{"Aspirin", "Tylenol", "Ibuprofen"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := State{View: ViewResult, Count: 3, CountInput: "3"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("CheckSafety() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("result does not depend on names", func(t *testing.T) {
		a, errA := c.CheckSafety(nameEntry, []string{"Aspirin", "Tylenol", "Ibuprofen"})
		b, errB := c.CheckSafety(nameEntry, []string{"x", "y", "z"})
		if errA != nil || errB != nil {
			t.Fatalf("unexpected errors: %v, %v", errA, errB)
		}
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("results differ (-a +b):\n%s", diff)
		}
	})
}

func TestCheckSafetyZeroCountAlwaysPasses(t *testing.T) {
	c := NewController(50)
	s, err := c.SubmitCount(NewState(), "0")
	if err != nil {
		t.Fatalf("SubmitCount: %v", err)
	}

	got, err := c.CheckSafety(s, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.View != ViewResult {
		t.Errorf("expected result view, got %s", got.View)
	}
}

func TestStartOver(t *testing.T) {
	c := NewController(50)
	s, _ := c.SubmitCount(NewState(), "2")
	s, err := c.CheckSafety(s, []string{"Aspirin", "Tylenol"})
	if err != nil {
		t.Fatalf("CheckSafety: %v", err)
	}

	got, err := c.StartOver(s)
	if err != nil {
		t.Fatalf("StartOver: %v", err)
	}

	want := State{View: ViewCountEntry, Count: 0, CountInput: "0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StartOver() mismatch (-want +got):\n%s", diff)
	}

	// Count entry is resubmittable after a restart
	again, err := c.SubmitCount(got, "1")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.View != ViewNameEntry || again.Count != 1 {
		t.Errorf("expected name entry with one drug, got %+v", again)
	}
}

func TestTransitionsRejectWrongView(t *testing.T) {
	c := NewController(50)
	countEntry := NewState()
	nameEntry, _ := c.SubmitCount(countEntry, "1")
	result, _ := c.CheckSafety(nameEntry, []string{"Aspirin"})

	checks := []struct {
		name string
		run  func() (State, error)
		from State
	}{
		{"check from count entry", func() (State, error) { return c.CheckSafety(countEntry, nil) }, countEntry},
		{"start over from count entry", func() (State, error) { return c.StartOver(countEntry) }, countEntry},
		{"submit from name entry", func() (State, error) { return c.SubmitCount(nameEntry, "2") }, nameEntry},
		{"start over from name entry", func() (State, error) { return c.StartOver(nameEntry) }, nameEntry},
		{"submit from result", func() (State, error) { return c.SubmitCount(result, "2") }, result},
		{"check from result", func() (State, error) { return c.CheckSafety(result, []string{"a"}) }, result},
	}

	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.run()
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if _, ok := AlertMessage(err); ok {
				t.Errorf("invalid transitions must not raise an alert")
			}
			if diff := cmp.Diff(tt.from, got); diff != "" {
				t.Errorf("state changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransitionsDoNotAliasInput(t *testing.T) {
	c := NewController(50)
	s, _ := c.SubmitCount(NewState(), "2")
	s.Names[0] = "Aspirin"

	next, err := c.CheckSafety(s, []string{"Aspirin", "Tylenol"})
	if err != nil {
		t.Fatalf("CheckSafety: %v", err)
	}
	if next.Names != nil {
		t.Errorf("expected names to be discarded, got %v", next.Names)
	}
	if s.Names[0] != "Aspirin" || s.View != ViewNameEntry {
		t.Errorf("input state was mutated: %+v", s)
	}
}

func TestViewText(t *testing.T) {
	for _, v := range []View{ViewCountEntry, ViewNameEntry, ViewResult} {
		text, err := v.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", v, err)
		}
		var back View
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if back != v {
			t.Errorf("round trip of %s gave %s", v, back)
		}
	}

	if _, err := View(42).MarshalText(); err == nil {
		t.Errorf("expected error for unknown view")
	}
	if !strings.HasPrefix(View(42).String(), "view(") {
		t.Errorf("unexpected String() for unknown view: %s", View(42))
	}
}
