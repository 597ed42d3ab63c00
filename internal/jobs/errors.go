package jobs

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind classifies a search error. Adapter-level kinds are fatal to one
// adapter call only; ValidationError and AllSourcesFailed abort the search.
type Kind string

const (
	KindUnsupportedSource Kind = "UNSUPPORTED_SOURCE"
	KindRateLimited       Kind = "RATE_LIMITED"
	KindTimeout           Kind = "TIMEOUT"
	KindTransport         Kind = "TRANSPORT"
	KindValidation        Kind = "VALIDATION"
	KindAllSourcesFailed  Kind = "ALL_SOURCES_FAILED"
)

// Error is the domain error carried across the orchestrator boundary. It
// keeps the originating stack so degraded adapters can be debugged from logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StackTrace() []byte {
	return e.stack
}

func newError(kind Kind, message string, err error) *Error {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		stack:   stack,
	}
}

func UnsupportedSource(message string, err error) *Error {
	return newError(KindUnsupportedSource, message, err)
}

func RateLimited(message string, err error) *Error {
	return newError(KindRateLimited, message, err)
}

func Timeout(message string, err error) *Error {
	return newError(KindTimeout, message, err)
}

func Transport(message string, err error) *Error {
	return newError(KindTransport, message, err)
}

func Validation(message string, err error) *Error {
	return newError(KindValidation, message, err)
}

func AllSourcesFailed(message string, err error) *Error {
	return newError(KindAllSourcesFailed, message, err)
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var domain *Error
	if errors.As(err, &domain) {
		return domain.Kind == kind
	}
	return false
}
