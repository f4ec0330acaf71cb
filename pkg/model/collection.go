package model

import (
	"errors"
	"fmt"
)

var (
	errMissingSubmit   = errors.New("model: collection has no submit element")
	errMultipleSubmits = errors.New("model: collection has more than one submit element")
	errSubmitNotLast   = errors.New("model: submit element is not last")
	errTooFewOptions   = errors.New("model: too few options")
)

// ValidateCollection checks the collection invariants: every id is present
// and unique, exactly one submit element exists, it carries SubmitID, and it
// is the last element. Select and radio elements carry at least MinOptions
// options.
func ValidateCollection(elements []Element) error {
	seen := make(map[string]struct{}, len(elements))
	submits := 0
	for idx, el := range elements {
		if !el.Type.Valid() {
			return fmt.Errorf("%w: %q at index %d", ErrUnknownType, el.Type, idx)
		}
		if el.ID == "" {
			return fmt.Errorf("model: element at index %d has no id", idx)
		}
		if _, dup := seen[el.ID]; dup {
			return fmt.Errorf("model: duplicate element id %q", el.ID)
		}
		seen[el.ID] = struct{}{}

		if el.HasOptions() && len(el.Options) < MinOptions {
			return fmt.Errorf("%w: element %q has %d, want at least %d", errTooFewOptions, el.ID, len(el.Options), MinOptions)
		}
		if !el.IsSubmit() {
			continue
		}
		submits++
		if el.ID != SubmitID {
			return fmt.Errorf("model: submit element has id %q, want %q", el.ID, SubmitID)
		}
		if idx != len(elements)-1 {
			return errSubmitNotLast
		}
	}

	switch {
	case submits == 0:
		return errMissingSubmit
	case submits > 1:
		return errMultipleSubmits
	}
	return nil
}

// Fields returns the non-submit elements in order.
func Fields(elements []Element) []Element {
	out := make([]Element, 0, len(elements))
	for _, el := range elements {
		if !el.IsSubmit() {
			out = append(out, el)
		}
	}
	return out
}

// Submit returns the submit element of the collection, if any.
func Submit(elements []Element) (Element, bool) {
	for _, el := range elements {
		if el.IsSubmit() {
			return el, true
		}
	}
	return Element{}, false
}

// IndexOf returns the position of id among the non-submit elements, or -1.
func IndexOf(elements []Element, id string) int {
	pos := 0
	for _, el := range elements {
		if el.IsSubmit() {
			continue
		}
		if el.ID == id {
			return pos
		}
		pos++
	}
	return -1
}

// Position returns the index of id in the full collection, submit included,
// or -1.
func Position(elements []Element, id string) int {
	for i, el := range elements {
		if el.ID == id {
			return i
		}
	}
	return -1
}
