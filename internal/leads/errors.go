package leads

import "errors"

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)

// MissingFieldError identifies which required field failed presence validation.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing required field: " + e.Field
}

// IsMissingField reports whether err is a MissingFieldError and returns the
// offending field name.
func IsMissingField(err error) (string, bool) {
	var mfe *MissingFieldError
	if errors.As(err, &mfe) {
		return mfe.Field, true
	}
	return "", false
}
