package wizard

import "fmt"

const (
	// FieldIDPrefix prefixes every generated drug name input id
	FieldIDPrefix = "drug-name-"
	// FieldPlaceholder is shown in every empty name input
	FieldPlaceholder = "e.g., Aspirin, Tylenol"
	// EmptyPlaceholder replaces the inputs when the count is zero
	EmptyPlaceholder = "No drugs to list. Proceed to safety check."
)

// Field describes one drug name input
type Field struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Placeholder string `json:"placeholder"`
	Required    bool   `json:"required"`
}

// Layout is the name-entry form generated for a count. Exactly one of
// Fields and Placeholder is set.
type Layout struct {
	Count       int     `json:"count"`
	Fields      []Field `json:"fields"`
	Placeholder string  `json:"placeholder,omitempty"`
}

// FieldID returns the input id for the 1-based index i
func FieldID(i int) string {
	return fmt.Sprintf("%s%d", FieldIDPrefix, i)
}

// FieldLabel returns the label text for the 1-based index i
func FieldLabel(i int) string {
	return fmt.Sprintf("Name of Drug #%d:", i)
}

// Fields generates the name-entry layout for count, in ascending index order.
// Negative counts are treated as zero.
func Fields(count int) Layout {
	if count <= 0 {
		return Layout{Count: 0, Fields: []Field{}, Placeholder: EmptyPlaceholder}
	}

	fields := make([]Field, 0, count)
	for i := 1; i <= count; i++ {
		fields = append(fields, Field{
			Index:       i,
			ID:          FieldID(i),
			Label:       FieldLabel(i),
			Type:        "text",
			Placeholder: FieldPlaceholder,
			Required:    true,
		})
	}

	return Layout{Count: count, Fields: fields}
}

// IDs returns the field ids in layout order
func (l Layout) IDs() []string {
	ids := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		ids[i] = f.ID
	}
	return ids
}

// LayoutDiff lists the changes needed to turn one layout into another
type LayoutDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Kept    []string `json:"kept"`
	// PlaceholderChanged is set when the zero-count paragraph appears or disappears
	PlaceholderChanged bool `json:"placeholder_changed"`
}

// Empty reports whether applying the diff would change nothing
func (d LayoutDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && !d.PlaceholderChanged
}

// Diff computes the minimal set of field additions and removals from old to next.
// Fields are identified by id; since labels derive from the index a kept id
// needs no update.
func Diff(old, next Layout) LayoutDiff {
	diff := LayoutDiff{
		Added:              []string{},
		Removed:            []string{},
		Kept:               []string{},
		PlaceholderChanged: old.Placeholder != next.Placeholder,
	}

	nextIDs := make(map[string]struct{}, len(next.Fields))
	for _, f := range next.Fields {
		nextIDs[f.ID] = struct{}{}
	}

	oldIDs := make(map[string]struct{}, len(old.Fields))
	for _, f := range old.Fields {
		oldIDs[f.ID] = struct{}{}
		if _, ok := nextIDs[f.ID]; ok {
			diff.Kept = append(diff.Kept, f.ID)
		} else {
			diff.Removed = append(diff.Removed, f.ID)
		}
	}

	for _, f := range next.Fields {
		if _, ok := oldIDs[f.ID]; !ok {
			diff.Added = append(diff.Added, f.ID)
		}
	}

	return diff
}
