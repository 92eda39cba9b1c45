package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for an empty message or an unknown persona.
	ErrInvalidInput = errors.New("invalid chat input")
	// ErrChildNotFound is returned when the requested child does not belong to the user.
	ErrChildNotFound = errors.New("child not found")
	// ErrSessionNotFound is returned when the session does not belong to the user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPersistence wraps storage failures. The request may be retried.
	ErrPersistence = errors.New("chat persistence failed")
)

// persistence wraps cause so that errors.Is matches both ErrPersistence and cause.
func persistence(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, cause)
}
