package quiz

import "errors"

var (
	// ErrNotHomeowner terminates the flow when the gate question is answered "no".
	ErrNotHomeowner = errors.New("quiz: only homeowners qualify")

	// ErrSessionHalted is returned on any advance after the gate rejected the visitor.
	ErrSessionHalted = errors.New("quiz: session halted")

	// ErrQuizComplete is returned on any advance past the terminal step.
	ErrQuizComplete = errors.New("quiz: already complete")

	// ErrSessionNotFound is returned by stores for unknown session IDs.
	ErrSessionNotFound = errors.New("quiz: session not found")
)

// ValidationError reports a step input that failed its format check. The
// session is never mutated when one of these is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// IsValidationError returns the typed error when err is a step validation failure.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
