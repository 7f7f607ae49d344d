package services

import (
	"errors"
	"fmt"
)

// ErrNotFound covers both records that do not exist and records owned by a
// different user; callers cannot tell the two apart.
var ErrNotFound = errors.New("record not found")

// ValidationError is a business rule violation with a caller-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a business rule violation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
