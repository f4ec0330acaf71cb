package model

import (
	"errors"
	"strconv"
)

// Type is the discriminant of a form element.
type Type string

const (
	TypeText     Type = "text"
	TypeTextarea Type = "textarea"
	TypeEmail    Type = "email"
	TypeNumber   Type = "number"
	TypeCheckbox Type = "checkbox"
	TypeSelect   Type = "select"
	TypeRadio    Type = "radio"
	TypeSubmit   Type = "submit"
)

const (
	// SubmitID is the fixed identifier of the submit element.
	SubmitID = "submit-button"
	// DefaultSubmitLabel is the label a fresh submit element carries.
	DefaultSubmitLabel = "Submit"
)

// ErrUnknownType is returned when a type string is not part of the closed set,
// or when a submit type is used where only addable types are allowed.
var ErrUnknownType = errors.New("model: unknown element type")

// ValueKind groups element types by the shape of their value.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueText
	ValueNumber
	ValueBool
)

// Valid reports whether t belongs to the closed variant set.
func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeEmail, TypeNumber, TypeCheckbox, TypeSelect, TypeRadio, TypeSubmit:
		return true
	default:
		return false
	}
}

// Addable reports whether elements of type t can be added through the
// palette. Every valid type except submit is addable.
func (t Type) Addable() bool {
	return t.Valid() && t != TypeSubmit
}

// HasOptions reports whether the variant carries an options list.
func (t Type) HasOptions() bool {
	return t == TypeSelect || t == TypeRadio
}

// ValueKind reports the value shape of the variant.
func (t Type) ValueKind() ValueKind {
	switch t {
	case TypeText, TypeTextarea, TypeEmail, TypeSelect, TypeRadio:
		return ValueText
	case TypeNumber:
		return ValueNumber
	case TypeCheckbox:
		return ValueBool
	default:
		return ValueNone
	}
}

// Number is the value of a number element. The zero value is the empty
// number, which serialises as "".
type Number struct {
	Value float64
	Valid bool
}

// NumberOf returns a set Number.
func NumberOf(v float64) Number {
	return Number{Value: v, Valid: true}
}

// String renders the number the way an input control would show it. The
// empty number renders as "".
func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// Element is a single entry of a form definition.
type Element struct {
	ID       string
	Type     Type
	Label    string
	Required bool

	// Text holds the value of text, textarea, email, select and radio elements.
	Text string
	// Number holds the value of number elements.
	Number Number
	// Checked holds the value of checkbox elements.
	Checked bool
	// Options lists the choices of select and radio elements. Duplicates are
	// permitted.
	Options []string
}

// IsSubmit reports whether the element is the submit variant.
func (e Element) IsSubmit() bool {
	return e.Type == TypeSubmit
}

// HasOptions reports whether the element carries an options list.
func (e Element) HasOptions() bool {
	return e.Type.HasOptions()
}

// Value returns the variant value as an untyped Go value: string, float64,
// bool, or nil for the empty number and for submit.
func (e Element) Value() any {
	switch e.Type.ValueKind() {
	case ValueText:
		return e.Text
	case ValueNumber:
		if !e.Number.Valid {
			return nil
		}
		return e.Number.Value
	case ValueBool:
		return e.Checked
	default:
		return nil
	}
}

// Clone returns a copy that shares no mutable state with e.
func (e Element) Clone() Element {
	out := e
	if e.Options != nil {
		out.Options = append([]string(nil), e.Options...)
	}
	return out
}

// CloneAll copies a collection element by element.
func CloneAll(elements []Element) []Element {
	if elements == nil {
		return nil
	}
	out := make([]Element, len(elements))
	for i, el := range elements {
		out[i] = el.Clone()
	}
	return out
}
