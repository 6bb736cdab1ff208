package testfixtures

import (
	"context"
	"sync"

	"github.com/example/openlibrary-kontrolle/internal/persistence"
)

// RecordingStore wraps a DocumentStore, counting calls and letting tests
// inject behaviour around them.
type RecordingStore struct {
	Inner persistence.DocumentStore

	// BeforeWrite runs before each Write reaches Inner, e.g. to simulate a
	// concurrent writer. A non-nil error short-circuits the write.
	BeforeWrite func(call int, content []byte, expected persistence.Version) error
	// FetchErr, when set, is returned by Fetch instead of calling Inner.
	FetchErr error

	mu       sync.Mutex
	fetches  int
	writes   int
	contents [][]byte
}

// NewRecordingStore wraps inner.
func NewRecordingStore(inner persistence.DocumentStore) *RecordingStore {
	return &RecordingStore{Inner: inner}
}

// Fetch implements persistence.DocumentStore.
func (s *RecordingStore) Fetch(ctx context.Context) (persistence.Blob, bool, error) {
	s.mu.Lock()
	s.fetches++
	fetchErr := s.FetchErr
	s.mu.Unlock()
	if fetchErr != nil {
		return persistence.Blob{}, false, fetchErr
	}
	return s.Inner.Fetch(ctx)
}

// Write implements persistence.DocumentStore.
func (s *RecordingStore) Write(ctx context.Context, content []byte, expected persistence.Version) (persistence.Version, error) {
	s.mu.Lock()
	s.writes++
	call := s.writes
	s.contents = append(s.contents, append([]byte(nil), content...))
	hook := s.BeforeWrite
	s.mu.Unlock()

	if hook != nil {
		if err := hook(call, content, expected); err != nil {
			return persistence.NoVersion, err
		}
	}
	return s.Inner.Write(ctx, content, expected)
}

// Fetches returns the number of Fetch calls.
func (s *RecordingStore) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// Writes returns the number of Write calls, including short-circuited ones.
func (s *RecordingStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Calls returns Fetches()+Writes().
func (s *RecordingStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches + s.writes
}

// WrittenContents returns copies of every payload passed to Write.
func (s *RecordingStore) WrittenContents() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.contents))
	for i, c := range s.contents {
		out[i] = append([]byte(nil), c...)
	}
	return out
}

// BlockingStore waits for the context to end on every call, which lets tests
// exercise store timeouts.
type BlockingStore struct{}

// Fetch implements persistence.DocumentStore.
func (BlockingStore) Fetch(ctx context.Context) (persistence.Blob, bool, error) {
	<-ctx.Done()
	return persistence.Blob{}, false, ctx.Err()
}

// Write implements persistence.DocumentStore.
func (BlockingStore) Write(ctx context.Context, _ []byte, _ persistence.Version) (persistence.Version, error) {
	<-ctx.Done()
	return persistence.NoVersion, ctx.Err()
}
