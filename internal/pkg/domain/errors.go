// Package domain holds the value objects, enumerations and error kinds shared
// by the order, payment and restaurant services.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvariant marks a violated business rule. Such failures are not
	// retried: they indicate bad input or an illegal transition.
	ErrInvariant = errors.New("domain invariant violated")
	// ErrNotFound marks a failed lookup of a required aggregate.
	ErrNotFound = errors.New("not found")
)

type Kind int

const (
	KindInvariant Kind = iota + 1
	KindNotFound
)

// Error is a domain failure carrying the user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvariant:
		return e.Kind == KindInvariant
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// NewError returns an invariant violation with the given message.
func NewError(msg string) *Error {
	return &Error{Kind: KindInvariant, Message: msg}
}

// WrapError returns an invariant violation that also matches cause.
func WrapError(cause error, msg string) *Error {
	return &Error{Kind: KindInvariant, Message: msg, Err: cause}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func IsInvariant(err error) bool { return errors.Is(err, ErrInvariant) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
