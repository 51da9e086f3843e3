package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the attribution core. Repositories and usecases wrap
// these with context; handlers map them to HTTP status codes.
var (
	// ErrInvalidInput is returned for malformed or empty input values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write collides with an existing
	// record, e.g. a rider code already taken.
	ErrConflict = errors.New("conflicting record exists")

	// ErrUnauthorized is returned when the caller lacks permission for the
	// operation, e.g. a non-admin adjudicating a change request.
	ErrUnauthorized = errors.New("unauthorized")
)

// StorageError wraps a backing-store failure. It is the only error kind a
// caller may retry; every mutating operation is idempotent or
// precondition-gated, so retries are safe.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
