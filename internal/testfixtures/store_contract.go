package testfixtures

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/openlibrary-kontrolle/internal/persistence"
)

// StoreFactory returns a fresh, empty DocumentStore for one subtest.
type StoreFactory func(t *testing.T) persistence.DocumentStore

// RunDocumentStoreContract checks the conditional-write semantics every
// DocumentStore implementation must provide.
func RunDocumentStoreContract(t *testing.T, open StoreFactory) {
	t.Helper()

	t.Run("fetch on absent document reports not found", func(t *testing.T) {
		store := open(t)
		blob, found, err := store.Fetch(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found || blob.Content != nil || !blob.Version.IsZero() {
			t.Fatalf("expected empty not-found result, got found=%v blob=%+v", found, blob)
		}
	})

	t.Run("create then fetch returns content and version", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		version, err := store.Write(ctx, []byte(`{"kontrollen":{}}`), persistence.NoVersion)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if version.IsZero() {
			t.Fatal("expected a version from create")
		}
		blob, found, err := store.Fetch(ctx)
		if err != nil || !found {
			t.Fatalf("fetch after create: found=%v err=%v", found, err)
		}
		if !bytes.Equal(blob.Content, []byte(`{"kontrollen":{}}`)) || blob.Version != version {
			t.Fatalf("unexpected blob %q at %s, want version %s", blob.Content, blob.Version, version)
		}
	})

	t.Run("create on existing document fails with already exists", func(t *testing.T) {
		store := open(t)
		ctx := context.Background()
		mustWrite(t, store, []byte(`{"a":1}`), persistence.NoVersion)
		_, err := store.Write(ctx, []byte(`{"a":2}`), persistence.NoVersion)
		if !errors.Is(err, persistence.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		assertContent(t, store, []byte(`{"a":1}`))
	})

	t.Run("update with current version succeeds", func(t *testing.T) {
		store := open(t)
		first := mustWrite(t, store, []byte(`{"a":1}`), persistence.NoVersion)
		second := mustWrite(t, store, []byte(`{"a":2}`), first)
		if second == first {
			t.Fatalf("expected a new version, got %s twice", second)
		}
		assertContent(t, store, []byte(`{"a":2}`))
	})

	t.Run("update with stale version conflicts", func(t *testing.T) {
		store := open(t)
		stale := mustWrite(t, store, []byte(`{"a":1}`), persistence.NoVersion)
		current := mustWrite(t, store, []byte(`{"a":2}`), stale)

		_, err := store.Write(context.Background(), []byte(`{"a":3}`), stale)
		var conflict *persistence.ConflictError
		if !errors.As(err, &conflict) || !errors.Is(err, persistence.ErrConflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if conflict.Expected != stale {
			t.Fatalf("expected conflict to name %s, got %s", stale, conflict.Expected)
		}
		if !conflict.Current.IsZero() && conflict.Current != current {
			t.Fatalf("expected current version %s, got %s", current, conflict.Current)
		}
		assertContent(t, store, []byte(`{"a":2}`))
	})

	t.Run("update of absent document conflicts", func(t *testing.T) {
		store := open(t)
		_, err := store.Write(context.Background(), []byte(`{"a":1}`), persistence.Version("feedface"))
		if !errors.Is(err, persistence.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("fetched content is a copy", func(t *testing.T) {
		store := open(t)
		mustWrite(t, store, []byte(`{"a":1}`), persistence.NoVersion)
		blob, _, err := store.Fetch(context.Background())
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		blob.Content[0] = 'X'
		assertContent(t, store, []byte(`{"a":1}`))
	})

	t.Run("concurrent writers on one version: exactly one wins", func(t *testing.T) {
		store := open(t)
		base := mustWrite(t, store, []byte(`{"n":0}`), persistence.NoVersion)

		const writers = 4
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			wins      int
			conflicts int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := store.Write(context.Background(), []byte{'{', '"', 'n', '"', ':', byte('1' + i), '}'}, base)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, persistence.ErrConflict):
					conflicts++
				default:
					t.Errorf("writer %d: unexpected error %v", i, err)
				}
			}(i)
		}
		wg.Wait()

		if wins != 1 || conflicts != writers-1 {
			t.Fatalf("expected 1 win and %d conflicts, got %d and %d", writers-1, wins, conflicts)
		}
	})
}

func mustWrite(t *testing.T, store persistence.DocumentStore, content []byte, expected persistence.Version) persistence.Version {
	t.Helper()
	version, err := store.Write(context.Background(), content, expected)
	if err != nil {
		t.Fatalf("write %q: %v", content, err)
	}
	return version
}

func assertContent(t *testing.T, store persistence.DocumentStore, want []byte) {
	t.Helper()
	blob, found, err := store.Fetch(context.Background())
	if err != nil || !found {
		t.Fatalf("fetch: found=%v err=%v", found, err)
	}
	if !bytes.Equal(blob.Content, want) {
		t.Fatalf("expected content %q, got %q", want, blob.Content)
	}
}
