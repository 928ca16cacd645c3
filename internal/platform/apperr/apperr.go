// Package apperr defines the error taxonomy shared by repositories, services
// and the HTTP error handler.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("already exists")
	ErrTooLarge     = errors.New("payload too large")
)

// ValidationError reports a request that failed required-field or
// reference checks. Its message is safe to show to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFound wraps ErrNotFound with the name of the missing resource, so
// handlers can return "patient not found" while callers still match
// errors.Is(err, ErrNotFound).
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// Conflict wraps ErrConflict with the conflicting resource name.
func Conflict(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrConflict)
}
