// Package common defines the error taxonomy and small helpers shared by the
// fitkeeper server layers. Callers match errors with errors.Is against the
// Kind values or with KindOf.
package common

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The set is closed: every error that reaches the
// HTTP layer resolves to exactly one Kind (unclassified errors are Internal).
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindDuplicateEntry
	KindTooManyRequests
)

// Code returns the stable machine-readable code sent to clients.
func (k Kind) Code() string {
	switch k {
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindDuplicateEntry:
		return "DUPLICATE_ENTRY"
	case KindTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "INTERNAL"
	}
}

func (k Kind) String() string { return k.Code() }

// Error implements error so a bare Kind can be used as a sentinel with
// errors.Is, e.g. errors.Is(err, common.KindNotFound).
func (k Kind) Error() string { return k.Code() }

// Error is a classified error. Message is safe to show to clients; Err keeps
// the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New returns a classified error with a client-facing message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

func BadRequest(format string, args ...any) *Error {
	return New(KindBadRequest, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func DuplicateEntry(format string, args ...any) *Error {
	return New(KindDuplicateEntry, format, args...)
}

// KindOf returns the classification of err. Errors without a classification
// anywhere in their chain are Internal.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return KindInternal
}

// PublicMessage returns the message that may be shown to a client. Internal
// errors never expose their cause.
func PublicMessage(err error) string {
	var ce *Error
	if errors.As(err, &ce) && ce.Kind != KindInternal && ce.Message != "" {
		return ce.Message
	}
	switch k := KindOf(err); k {
	case KindInternal:
		return "internal server error"
	default:
		return k.Code()
	}
}
