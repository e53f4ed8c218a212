package models

import (
	"errors"
	"net/http"
)

// Kind classifies a request failure. Every kind maps to one HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindConflict
	KindInvalidCredentials
	KindUnauthorized
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindInvalidInput, KindConflict, KindInvalidCredentials:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is a terminal request failure. Message is safe to show to callers;
// Err carries the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

const InternalMessage = "Internal Server Error"

func InvalidInput(msg string) *Error       { return &Error{Kind: KindInvalidInput, Message: msg} }
func Conflict(msg string) *Error           { return &Error{Kind: KindConflict, Message: msg} }
func InvalidCredentials(msg string) *Error { return &Error{Kind: KindInvalidCredentials, Message: msg} }
func Unauthorized(msg string) *Error       { return &Error{Kind: KindUnauthorized, Message: msg} }

// Internal wraps a store or hashing failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: InternalMessage, Err: err}
}

// KindOf reports the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
