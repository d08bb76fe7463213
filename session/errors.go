package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound indicates the session does not exist.
	ErrSessionNotFound = errors.New("session: not found")

	// ErrSessionExists indicates a session with the same id already exists.
	ErrSessionExists = errors.New("session: already exists")

	// ErrInvocationNotFound indicates no suspended invocation is stored under the id.
	ErrInvocationNotFound = errors.New("session: invocation not found")
)

// SerializationError wraps JSON marshaling/unmarshaling errors with context.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("session: serialization error for key %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
