package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrTooManyAttempts is returned when the form is still invalid after the
	// configured number of correction rounds.
	ErrTooManyAttempts = errors.New("prompt: form still invalid")
)
