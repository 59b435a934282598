// Package pkg holds utilities shared across the project.
// This file defines the domain-level errors.
//
// Errors are compared by identity, never by string:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

// Domain-level errors. Services wrap them with context
// (fmt.Errorf("%w: ...", pkg.ErrBadRequest)) and handlers map them to
// HTTP status codes.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBadRequest      = errors.New("bad request")
	ErrInternal        = errors.New("internal error")
	ErrUnavailable     = errors.New("service unavailable")
	ErrTooManyRequests = errors.New("too many requests")
)

// UserMessage returns the part of a wrapped domain error meant for the user:
// for "bad request: Escribe algo para publicar" it returns
// "Escribe algo para publicar". Unknown errors return a generic text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, sentinel := range []error{
		ErrNotFound, ErrUnauthorized, ErrForbidden, ErrAlreadyExists,
		ErrBadRequest, ErrUnavailable, ErrTooManyRequests,
	} {
		if errors.Is(err, sentinel) {
			msg := err.Error()
			prefix := sentinel.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
			return msg
		}
	}
	return ErrInternal.Error()
}

// MessageError is a domain error whose user message has placeholders,
// such as "La imagen supera el máximo de {{max}}".
type MessageError struct {
	Kind   error
	Key    string
	Params map[string]string
}

// WithParams wraps kind with a message key and its placeholder values.
func WithParams(kind error, key string, params map[string]string) error {
	return &MessageError{Kind: kind, Key: key, Params: params}
}

func (e *MessageError) Error() string { return e.Kind.Error() + ": " + e.Key }

func (e *MessageError) Unwrap() error { return e.Kind }
