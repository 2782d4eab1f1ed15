package streak

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation needs a record that has not been initialized
	ErrNotFound = errors.New("streak not initialized")
	// ErrAlreadyInitialized is returned by Initialize when a record already exists
	ErrAlreadyInitialized = errors.New("streak already initialized")
	// ErrGracePeriodAlreadyUsed is returned when the one-time grace period was consumed since the last relapse
	ErrGracePeriodAlreadyUsed = errors.New("grace period already used")
	// ErrInvalidQuitDate is returned by Initialize for a zero quit date
	ErrInvalidQuitDate = errors.New("quit date is required")
)

// PersistenceError reports a failed read, write or (de)serialization of a stored key.
type PersistenceError struct {
	Op  string // load, save, remove, encode or decode
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
