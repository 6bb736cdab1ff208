package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when a conditional write names a version that is no
	// longer current.
	ErrConflict = errors.New("persistence: version conflict")
	// ErrAlreadyExists is returned when a create-new write loses the race against
	// a concurrent creator.
	ErrAlreadyExists = errors.New("persistence: document already exists")
	// ErrTransient marks network, auth, rate-limit and timeout failures that a
	// caller may retry after backing off.
	ErrTransient = errors.New("persistence: transient failure")
)

// ConflictError reports a stale expected version. It carries no retry hint.
type ConflictError struct {
	Path     string
	Expected Version
	Current  Version
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Current == NoVersion {
		return fmt.Sprintf("persistence: version conflict on %s: expected %s, document is absent", e.Path, e.Expected)
	}
	return fmt.Sprintf("persistence: version conflict on %s: expected %s, current %s", e.Path, e.Expected, e.Current)
}

// Is matches ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// TransientError wraps a failure that may succeed on retry.
type TransientError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// Is matches ErrTransient in addition to the wrapped chain.
func (e *TransientError) Is(target error) bool {
	return target == ErrTransient
}

// Transient wraps err as a TransientError for op. A nil err stays nil.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// AlreadyExists wraps ErrAlreadyExists with the document path.
func AlreadyExists(path string) error {
	return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
}
