package model

import (
	"fmt"
	"strings"
)

// PaletteEntry describes an addable element type as offered to users.
type PaletteEntry struct {
	Type  Type   `json:"type"`
	Label string `json:"label"`
}

var palette = []PaletteEntry{
	{Type: TypeText, Label: "Text Input"},
	{Type: TypeTextarea, Label: "Textarea"},
	{Type: TypeCheckbox, Label: "Checkbox"},
	{Type: TypeEmail, Label: "Email"},
	{Type: TypeNumber, Label: "Number"},
	{Type: TypeSelect, Label: "Select"},
	{Type: TypeRadio, Label: "Radio Group"},
}

// defaultLabels differ from the palette labels for select.
var defaultLabels = map[Type]string{
	TypeText:     "Text Input",
	TypeTextarea: "Textarea",
	TypeCheckbox: "Checkbox",
	TypeEmail:    "Email",
	TypeNumber:   "Number",
	TypeSelect:   "Select Dropdown",
	TypeRadio:    "Radio Group",
}

// DefaultOptions seeds select and radio elements.
var DefaultOptions = []string{"Option 1", "Option 2"}

// Palette returns the addable types in display order.
func Palette() []PaletteEntry {
	return append([]PaletteEntry(nil), palette...)
}

// AddableTypes returns the addable type identifiers in palette order.
func AddableTypes() []Type {
	out := make([]Type, len(palette))
	for i, entry := range palette {
		out[i] = entry.Type
	}
	return out
}

// ParseType recognises a drag payload. Only addable type identifiers are
// accepted; everything else, including "submit", reports false.
func ParseType(payload string) (Type, bool) {
	t := Type(strings.TrimSpace(payload))
	if !t.Addable() {
		return "", false
	}
	return t, true
}

// DefaultLabel returns the label template for t without the sequence number.
func DefaultLabel(t Type) string {
	if t == TypeSubmit {
		return DefaultSubmitLabel
	}
	return defaultLabels[t]
}

// Defaults returns the canonical starting attributes for a freshly added
// element of type t. The returned element has no id and carries the label
// template without a sequence number.
func Defaults(t Type) (Element, error) {
	if !t.Addable() {
		return Element{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	el := Element{
		Type:  t,
		Label: defaultLabels[t],
	}
	if t.HasOptions() {
		el.Options = append([]string(nil), DefaultOptions...)
	}
	return el, nil
}

// NextLabel computes the label for a new element of type t given the current
// collection: "<template> <count+1>" where count is the number of elements of
// that exact type already present. The count is taken fresh each time, so
// numbers freed by removals are reused.
func NextLabel(elements []Element, t Type) string {
	count := 0
	for _, el := range elements {
		if el.Type == t {
			count++
		}
	}
	return fmt.Sprintf("%s %d", DefaultLabel(t), count+1)
}

// NewSubmit returns the submit element in its initial state.
func NewSubmit() Element {
	return Element{
		ID:    SubmitID,
		Type:  TypeSubmit,
		Label: DefaultSubmitLabel,
	}
}

// Initial returns the initial collection: a lone submit element.
func Initial() []Element {
	return []Element{NewSubmit()}
}
