package agent

import "errors"

var (
	// ErrEmptyQuestion rejects blank input before any model call.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrMalformedOutput marks a turn where the reasoning backend returned
	// nothing usable. Callers retry these exactly once.
	ErrMalformedOutput = errors.New("agent output is malformed")
)

// IsMalformed reports whether an error is a retryable agent formatting error.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedOutput)
}
