package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/openlibrary-kontrolle/internal/persistence"
)

func TestRecordingStoreCountsAndHooks(t *testing.T) {
	store := NewRecordingStore(persistence.NewMemoryStore("doc.json"))
	injected := errors.New("injected")
	store.BeforeWrite = func(call int, _ []byte, _ persistence.Version) error {
		if call == 2 {
			return injected
		}
		return nil
	}

	ctx := context.Background()
	if _, err := store.Write(ctx, []byte(`{}`), persistence.NoVersion); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := store.Write(ctx, []byte(`{"x":1}`), persistence.NoVersion); !errors.Is(err, injected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, _, err := store.Fetch(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if store.Writes() != 2 || store.Fetches() != 1 || store.Calls() != 3 {
		t.Fatalf("unexpected counts: writes=%d fetches=%d", store.Writes(), store.Fetches())
	}
	if got := store.WrittenContents(); len(got) != 2 || string(got[1]) != `{"x":1}` {
		t.Fatalf("unexpected recorded contents %q", got)
	}
}

func TestBlockingStoreHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, _, err := (BlockingStore{}).Fetch(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSQLiteHarnessSatisfiesContract(t *testing.T) {
	RunDocumentStoreContract(t, func(t *testing.T) persistence.DocumentStore {
		return NewSQLiteHarness(t).Store
	})
}
