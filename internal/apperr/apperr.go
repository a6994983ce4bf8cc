package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	ServerFault Kind = iota
	NotFound
	Forbidden
	InvalidInput
	Conflict
	Unavailable
	Unauthenticated
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case InvalidInput:
		return "invalid_input"
	case Conflict:
		return "conflict"
	case Unavailable:
		return "unavailable"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "server_fault"
	}
}

// Error is a client-facing failure. Its Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New returns a sentinel error. Compare with errors.Is.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf builds a one-off error of the given kind.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: kind.String(), Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err. Errors not produced by this package are
// ServerFault.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ServerFault
}

// As unwraps err into an *Error if it carries one.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
