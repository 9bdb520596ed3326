package mutation

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicate means the identifier already exists in the loaded
	// collection. The check ignores case.
	ErrDuplicate = errors.New("identifier already exists in the loaded collection")
	// ErrPending means the record already has a mutation in flight.
	ErrPending = errors.New("record has a mutation in flight")
)

// ValidationError reports a missing or invalid field. It is raised before
// anything is dispatched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
