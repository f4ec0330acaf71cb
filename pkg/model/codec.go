package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireElement is the persisted/exported shape. Field order matches the order
// elements have always been written in: id, type, label, required, value,
// options.
type wireElement struct {
	ID       string          `json:"id"`
	Type     Type            `json:"type"`
	Label    string          `json:"label"`
	Required *bool           `json:"required,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	Options  *[]string       `json:"options,omitempty"`
}

// MarshalJSON writes only the fields that belong to the element's variant.
func (e Element) MarshalJSON() ([]byte, error) {
	wire := wireElement{
		ID:    e.ID,
		Type:  e.Type,
		Label: e.Label,
	}
	if e.IsSubmit() {
		return json.Marshal(wire)
	}

	required := e.Required
	wire.Required = &required

	var (
		value []byte
		err   error
	)
	switch e.Type.ValueKind() {
	case ValueText:
		value, err = json.Marshal(e.Text)
	case ValueNumber:
		if e.Number.Valid {
			value, err = json.Marshal(e.Number.Value)
		} else {
			value = []byte(`""`)
		}
	case ValueBool:
		value, err = json.Marshal(e.Checked)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("model: encode %s value: %w", e.Type, err)
	}
	wire.Value = value

	if e.HasOptions() {
		options := e.Options
		if options == nil {
			options = []string{}
		}
		wire.Options = &options
	}
	return json.Marshal(wire)
}

// UnmarshalJSON accepts the wire shape and rejects values whose kind does not
// match the variant. Missing values fall back to the variant's zero value.
func (e *Element) UnmarshalJSON(data []byte) error {
	var wire wireElement
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if !wire.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, wire.Type)
	}

	out := Element{
		ID:    wire.ID,
		Type:  wire.Type,
		Label: wire.Label,
	}
	if out.IsSubmit() {
		*e = out
		return nil
	}

	if wire.Required != nil {
		out.Required = *wire.Required
	}
	if wire.Options != nil && out.HasOptions() {
		out.Options = append([]string{}, (*wire.Options)...)
	}

	if len(wire.Value) > 0 {
		switch out.Type.ValueKind() {
		case ValueText:
			if err := json.Unmarshal(wire.Value, &out.Text); err != nil {
				return fmt.Errorf("model: element %q: %s value must be a string", wire.ID, wire.Type)
			}
		case ValueNumber:
			n, err := decodeNumber(wire.Value)
			if err != nil {
				return fmt.Errorf("model: element %q: %w", wire.ID, err)
			}
			out.Number = n
		case ValueBool:
			if bytes.Equal(wire.Value, []byte("null")) {
				break
			}
			if err := json.Unmarshal(wire.Value, &out.Checked); err != nil {
				return fmt.Errorf("model: element %q: checkbox value must be a boolean", wire.ID)
			}
		}
	}

	*e = out
	return nil
}
