package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/lodging-booking/internal/repository"
)

// Kind classifies a service failure.  Handlers map kinds onto HTTP status
// codes; they never look at messages.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_transition"
	KindUpstream          Kind = "upstream_failure"
)

// Error is the error type returned by every service operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrUpstream          = &Error{Kind: KindUpstream}
)

func invalidInput(msg string) *Error      { return &Error{Kind: KindInvalidInput, Message: msg} }
func notFound(msg string) *Error          { return &Error{Kind: KindNotFound, Message: msg} }
func conflict(msg string) *Error          { return &Error{Kind: KindConflict, Message: msg} }
func forbidden(msg string) *Error         { return &Error{Kind: KindForbidden, Message: msg} }
func invalidTransition(msg string) *Error { return &Error{Kind: KindInvalidTransition, Message: msg} }

// Upstream wraps a storage or remote failure.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// Forbidden builds a forbidden error with the given message.
func Forbidden(msg string) *Error { return forbidden(msg) }

// NotFound builds a not-found error with the given message.
func NotFound(msg string) *Error { return notFound(msg) }

// InvalidInput builds an invalid-input error with the given message.
func InvalidInput(msg string) *Error { return invalidInput(msg) }

// classify turns an error escaping an Atomic callback into a service
// error.  Errors already classified pass through; repository sentinels
// become their kind with notFoundMsg used for ErrNotFound.
func classify(err error, op, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound(notFoundMsg)
	case errors.Is(err, repository.ErrConflict):
		return conflict("Resource already exists")
	}
	return Upstream(op+" failed", err)
}
