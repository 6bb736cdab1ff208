package persistence

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process DocumentStore. Versions are random UUIDs, so two
// writes of identical content still produce distinct versions.
type MemoryStore struct {
	mu      sync.RWMutex
	path    string
	content []byte
	version Version
	exists  bool
	nextID  func() string
}

// NewMemoryStore returns an empty store for the given logical path.
func NewMemoryStore(path string) *MemoryStore {
	return &MemoryStore{path: path, nextID: uuid.NewString}
}

// NewMemoryStoreWith returns a store pre-populated with content, as if it had
// been written once.
func NewMemoryStoreWith(path string, content []byte) *MemoryStore {
	s := NewMemoryStore(path)
	s.content = slices.Clone(content)
	s.version = Version(s.nextID())
	s.exists = true
	return s
}

// Location implements Named.
func (s *MemoryStore) Location() string {
	return "memory:" + s.path
}

// Fetch implements DocumentStore.
func (s *MemoryStore) Fetch(ctx context.Context) (Blob, bool, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, false, Transient("fetch", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return Blob{}, false, nil
	}
	return Blob{Content: slices.Clone(s.content), Version: s.version}, true, nil
}

// Write implements DocumentStore.
func (s *MemoryStore) Write(ctx context.Context, content []byte, expected Version) (Version, error) {
	if err := ctx.Err(); err != nil {
		return NoVersion, Transient("write", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case expected.IsZero() && s.exists:
		return NoVersion, AlreadyExists(s.path)
	case !expected.IsZero() && !s.exists:
		return NoVersion, &ConflictError{Path: s.path, Expected: expected}
	case !expected.IsZero() && expected != s.version:
		return NoVersion, &ConflictError{Path: s.path, Expected: expected, Current: s.version}
	}

	s.content = slices.Clone(content)
	s.version = Version(s.nextID())
	s.exists = true
	return s.version, nil
}

// Snapshot returns the stored content and version without a context, for tests
// and diagnostics.
func (s *MemoryStore) Snapshot() (Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Blob{Content: slices.Clone(s.content), Version: s.version}, s.exists
}
