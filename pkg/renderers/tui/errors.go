package tui

import "errors"

var (
	// ErrAborted signals the user interrupted a prompt (Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrCancelled is returned when the user declines to submit at the
	// summary and chooses not to revise any step.
	ErrCancelled = errors.New("tui: submission cancelled")
)
