package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
)

// Error pairs a sentinel kind with a message meant for the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

func Conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }
func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }
func Invalid(msg string) error  { return &Error{Kind: ErrInvalid, Message: msg} }

// Message returns the client-facing message of a domain error, or fallback.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}
