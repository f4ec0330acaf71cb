package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrInvalidSubmission is returned when the collected values fail the
	// final submit check.
	ErrInvalidSubmission = errors.New("tui: submission failed validation")
)
