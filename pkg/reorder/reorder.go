// Package reorder implements the positional move used by the builder canvas:
// take the item at one index and reinsert it at another, shifting everything
// in between by one slot. Pinned items (the submit element) are lifted out
// before indexing and restored afterwards.
package reorder

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned when either index falls outside the
// sequence being reordered. Out-of-range moves are rejected, never clamped.
var ErrIndexOutOfRange = errors.New("reorder: index out of range")

// Move returns a new slice with the item at from moved to position to.
// Moving an item onto its own position returns an unchanged copy.
func Move[T any](items []T, from, to int) ([]T, error) {
	n := len(items)
	if from < 0 || from >= n {
		return nil, fmt.Errorf("%w: from=%d len=%d", ErrIndexOutOfRange, from, n)
	}
	if to < 0 || to >= n {
		return nil, fmt.Errorf("%w: to=%d len=%d", ErrIndexOutOfRange, to, n)
	}

	out := make([]T, n)
	copy(out, items)
	if from == to {
		return out, nil
	}

	moved := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moved
	return out, nil
}

// MoveUnpinned applies Move to the subsequence of items for which pinned
// reports false, then appends the pinned items in their original relative
// order. Indices address the unpinned subsequence.
func MoveUnpinned[T any](items []T, pinned func(T) bool, from, to int) ([]T, error) {
	free := make([]T, 0, len(items))
	var held []T
	for _, item := range items {
		if pinned(item) {
			held = append(held, item)
			continue
		}
		free = append(free, item)
	}

	moved, err := Move(free, from, to)
	if err != nil {
		return nil, err
	}
	return append(moved, held...), nil
}
