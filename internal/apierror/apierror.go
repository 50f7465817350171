// Package apierror normalises every failure of the remote ramen API into a
// single {status, message} shape.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API failure for the view layer.
type Kind int

const (
	KindTransient Kind = iota
	KindInvalid
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "transient"
	}
}

// Sentinels usable with errors.Is against any *Error.
var (
	ErrTransient    = &Error{kind: kindPtr(KindTransient)}
	ErrInvalid      = &Error{kind: kindPtr(KindInvalid)}
	ErrUnauthorized = &Error{kind: kindPtr(KindUnauthorized)}
	ErrForbidden    = &Error{kind: kindPtr(KindForbidden)}
	ErrNotFound     = &Error{kind: kindPtr(KindNotFound)}
	ErrConflict     = &Error{kind: kindPtr(KindConflict)}
)

func kindPtr(k Kind) *Kind { return &k }

// Error is the normalised network error. Status is 0 for connectivity
// failures, the HTTP status otherwise.
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`

	kind  *Kind
	cause error
}

// New builds an error for an HTTP status and the server supplied message.
func New(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Status: status, Message: message}
}

// Rejected builds the error for an envelope with success=false.
func Rejected(status int, message string) *Error {
	if message == "" {
		message = "request rejected by server"
	}
	return &Error{Status: status, Message: message, kind: kindPtr(KindInvalid)}
}

// Network wraps a transport failure where no response was received.
func Network(cause error) *Error {
	return &Error{Status: 0, Message: "network error: unable to reach server", cause: cause}
}

func (e *Error) Error() string {
	if e.Status == 0 {
		if e.cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.cause)
		}
		return e.Message
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Kind reports the classification of the error.
func (e *Error) Kind() Kind {
	if e.kind != nil {
		return *e.kind
	}
	switch {
	case e.Status == http.StatusUnauthorized:
		return KindUnauthorized
	case e.Status == http.StatusForbidden:
		return KindForbidden
	case e.Status == http.StatusNotFound:
		return KindNotFound
	case e.Status == http.StatusConflict:
		return KindConflict
	case e.Status == http.StatusBadRequest,
		e.Status == http.StatusRequestEntityTooLarge,
		e.Status == http.StatusUnprocessableEntity:
		return KindInvalid
	default:
		return KindTransient
	}
}

// Retryable reports whether re-issuing the same request may succeed.
func (e *Error) Retryable() bool {
	return e.Kind() == KindTransient
}

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.kind == nil || t.Status != 0 || t.Message != "" {
		return false
	}
	return e.Kind() == *t.kind
}

// From extracts an *Error from err, normalising anything else into a
// transient error with status 0.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Status: 0, Message: err.Error(), cause: err}
}

// KindOf is a shortcut for From(err).Kind().
func KindOf(err error) Kind {
	if e := From(err); e != nil {
		return e.Kind()
	}
	return KindTransient
}
