// Package controller holds the view-state machinery shared by every page:
// paginated list fetching, the reply expansion cache, staged media edits
// and input debouncing.
package controller

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every ValidationError with errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrClosed is returned by controllers after Close.
	ErrClosed = errors.New("controller closed")

	ErrSubmitInProgress = errors.New("submit already in progress")
)

// ValidationError is a client-local rejection. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
