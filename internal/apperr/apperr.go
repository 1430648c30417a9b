// Package apperr defines the error taxonomy shared by services and the API
// layer. Services wrap domain failures in one of three kinds; handlers map
// kinds to HTTP statuses and treat everything else as an internal error.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
	KindForbidden
)

// Error is an application error carrying a kind and a client-safe message.
type Error struct {
	Knd Kind
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// BadRequest returns a KindBadRequest error with the given message.
func BadRequest(msg string) error { return &Error{Knd: KindBadRequest, Msg: msg} }

// BadRequestf formats a KindBadRequest error.
func BadRequestf(format string, args ...any) error {
	return &Error{Knd: KindBadRequest, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error with the given message.
func NotFound(msg string) error { return &Error{Knd: KindNotFound, Msg: msg} }

// Forbidden returns a KindForbidden error with the given message.
func Forbidden(msg string) error { return &Error{Knd: KindForbidden, Msg: msg} }

// Wrap attaches a cause to a kinded error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Knd: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Knd
	}
	return KindInternal
}

// Message returns the client-safe message of err, or a generic fallback.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return "internal server error"
}
