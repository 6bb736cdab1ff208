package application

import (
	"errors"
	"fmt"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

var (
	// ErrNotFound is returned when an operation targets an entry that does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConcurrentModification is returned when a save cannot be reconciled with
	// a concurrent change. The caller must reload and redo the edit.
	ErrConcurrentModification = errors.New("application: concurrent modification")
	// ErrUnreadableDocument is returned when the stored content is not a JSON
	// object. The blob is left untouched.
	ErrUnreadableDocument = errors.New("application: stored document is unreadable")
)

// ConcurrentModificationError names the entry that was changed by someone else.
// Section and Key are empty when the conflict could not be attributed to a
// single entry.
type ConcurrentModificationError struct {
	Section domain.Section
	Key     string
	Reason  string
}

// Error implements the error interface.
func (e *ConcurrentModificationError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("application: %s[%s] was changed by someone else; reload and retry", e.Section, e.Key)
	}
	if e.Reason != "" {
		return "application: document was changed by someone else (" + e.Reason + "); reload and retry"
	}
	return "application: document was changed by someone else; reload and retry"
}

// Is matches ErrConcurrentModification.
func (e *ConcurrentModificationError) Is(target error) bool {
	return target == ErrConcurrentModification
}
