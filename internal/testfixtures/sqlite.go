package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/openlibrary-kontrolle/internal/persistence/sqlite"
	"github.com/example/openlibrary-kontrolle/internal/persistence/sqlite/migration"
)

// SQLiteHarness owns a migrated temporary SQLite document store.
type SQLiteHarness struct {
	Store *sqlite.Store
	Path  string

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a store on a fresh database file under tb.TempDir.
// The store is closed automatically when the test finishes.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "kontrolle.db")
	store, err := sqlite.Open(context.Background(), sqlite.Config{
		Database: migration.TempFileTestSQLiteConfig(path),
		Path:     "kontrollen.json",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}

	harness := &SQLiteHarness{
		Store: store,
		Path:  path,
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}
