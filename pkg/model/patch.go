package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Patch is a partial update of an element. Nil fields are left untouched.
// The discriminant and the id are never patchable. Fields that do not belong
// to the target variant are ignored when the patch is applied, so a single
// patch shape can be used for every element.
type Patch struct {
	Label    *string
	Required *bool
	Text     *string
	Number   *Number
	Checked  *bool
	// Options replaces the option list of select/radio elements. An empty
	// list is ignored: option lists never drop below one entry.
	Options []string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Label == nil && p.Required == nil && p.Text == nil &&
		p.Number == nil && p.Checked == nil && len(p.Options) == 0
}

// Apply merges the patch into a copy of e.
func (e Element) Apply(p Patch) Element {
	out := e.Clone()
	if p.Label != nil {
		out.Label = *p.Label
	}
	if out.IsSubmit() {
		return out
	}
	if p.Required != nil {
		out.Required = *p.Required
	}
	switch out.Type.ValueKind() {
	case ValueText:
		if p.Text != nil {
			out.Text = *p.Text
		}
	case ValueNumber:
		if p.Number != nil {
			out.Number = *p.Number
		}
	case ValueBool:
		if p.Checked != nil {
			out.Checked = *p.Checked
		}
	}
	if out.HasOptions() && len(p.Options) > 0 {
		out.Options = append([]string(nil), p.Options...)
	}
	return out
}

// SetLabel returns a patch that changes only the label.
func SetLabel(label string) Patch {
	return Patch{Label: &label}
}

// SetRequired returns a patch that changes only the required flag.
func SetRequired(required bool) Patch {
	return Patch{Required: &required}
}

// SetText returns a patch that changes the value of a text-valued element.
func SetText(value string) Patch {
	return Patch{Text: &value}
}

// SetNumber returns a patch that changes the value of a number element.
func SetNumber(value Number) Patch {
	return Patch{Number: &value}
}

// SetChecked returns a patch that changes the value of a checkbox element.
func SetChecked(checked bool) Patch {
	return Patch{Checked: &checked}
}

// SetOptions returns a patch that replaces the option list.
func SetOptions(options ...string) Patch {
	return Patch{Options: append([]string(nil), options...)}
}

type wirePatch struct {
	Label    *string         `json:"label"`
	Required *bool           `json:"required"`
	Value    json.RawMessage `json:"value"`
	Options  []string        `json:"options"`
}

// DecodePatch parses a JSON patch body ({"label","required","value","options"})
// for an element of type t. The value is interpreted against the variant:
// strings for text-valued types, a number, numeric string or "" for number,
// and a boolean for checkbox.
func DecodePatch(t Type, data []byte) (Patch, error) {
	var wire wirePatch
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return Patch{}, fmt.Errorf("model: decode patch: %w", err)
	}

	patch := Patch{
		Label:    wire.Label,
		Required: wire.Required,
		Options:  wire.Options,
	}
	if len(wire.Value) == 0 || bytes.Equal(wire.Value, []byte("null")) && t.ValueKind() != ValueNumber {
		return patch, nil
	}

	switch t.ValueKind() {
	case ValueText:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return Patch{}, fmt.Errorf("model: %s value must be a string", t)
		}
		patch.Text = &s
	case ValueNumber:
		n, err := decodeNumber(wire.Value)
		if err != nil {
			return Patch{}, err
		}
		patch.Number = &n
	case ValueBool:
		var b bool
		if err := json.Unmarshal(wire.Value, &b); err != nil {
			return Patch{}, fmt.Errorf("model: %s value must be a boolean", t)
		}
		patch.Checked = &b
	case ValueNone:
		return Patch{}, fmt.Errorf("model: %s elements carry no value", t)
	}
	return patch, nil
}

// ParseNumber interprets user input for a number element. Blank input is the
// empty number; anything that is not a finite number is rejected.
func ParseNumber(raw string) (Number, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Number{}, nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}, fmt.Errorf("model: %q is not a number", raw)
	}
	return NumberOf(v), nil
}

func decodeNumber(raw json.RawMessage) (Number, error) {
	if bytes.Equal(raw, []byte("null")) {
		return Number{}, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return NumberOf(f), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return Number{}, fmt.Errorf("model: number value must be a number or a string")
	}
	return ParseNumber(s)
}
