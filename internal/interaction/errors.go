package interaction

import (
	"errors"
	"net/http"
)

// Kind classifies a request-handling failure.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindMalformedPayload
	KindUnknownCommand
	KindUnsupportedInteraction
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindMalformedPayload:
		return "malformed_payload"
	case KindUnknownCommand:
		return "unknown_command"
	case KindUnsupportedInteraction:
		return "unsupported_interaction"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind to the status code returned to the platform.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindMalformedPayload, KindUnsupportedInteraction:
		return http.StatusBadRequest
	case KindUnknownCommand:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified request-handling error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrUnknownCommand) works for any wrapped unknown-command error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnauthenticated        = &Error{Kind: KindUnauthenticated}
	ErrMalformedPayload       = &Error{Kind: KindMalformedPayload}
	ErrUnknownCommand         = &Error{Kind: KindUnknownCommand}
	ErrUnsupportedInteraction = &Error{Kind: KindUnsupportedInteraction}
)

// KindOf returns the kind of err, or KindInternal when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
