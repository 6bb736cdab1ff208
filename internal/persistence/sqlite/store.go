package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/example/openlibrary-kontrolle/internal/persistence"
	"github.com/example/openlibrary-kontrolle/internal/persistence/sqlite/migration"
)

// Config describes a SQLite-backed document store.
type Config struct {
	Database migration.SQLiteConfig
	// Path is the logical document key, e.g. "data/kontrollen.json".
	Path  string
	Retry RetryConfig
}

// Store keeps the document in the documents table keyed by path. Versions are
// content hashes, so rewriting identical bytes yields the same version.
type Store struct {
	db    *sql.DB
	dsn   string
	path  string
	retry RetryConfig
	now   func() time.Time
	owned bool
}

// Revision is one entry of the write history.
type Revision struct {
	Version         persistence.Version
	PreviousVersion persistence.Version
	Content         []byte
	WrittenAt       time.Time
}

var _ persistence.DocumentStore = (*Store)(nil)

// Open opens the database, runs migrations and returns a store that owns the
// connection.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: document path is required")
	}
	db, err := OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	s := New(db, cfg.Path, cfg.Retry)
	s.dsn = cfg.Database.DSN
	s.owned = true
	return s, nil
}

// New wraps an already migrated database. A zero retry config falls back to
// DefaultRetryConfig.
func New(db *sql.DB, path string, retry RetryConfig) *Store {
	if retry == (RetryConfig{}) {
		retry = DefaultRetryConfig()
	}
	return &Store{db: db, path: path, retry: retry, now: time.Now}
}

// ContentVersion returns the version a store assigns to content.
func ContentVersion(content []byte) persistence.Version {
	sum := blake2b.Sum256(content)
	return persistence.Version(hex.EncodeToString(sum[:]))
}

// Location implements persistence.Named.
func (s *Store) Location() string {
	if s.dsn == "" {
		return "sqlite:" + s.path
	}
	return "sqlite:" + s.dsn + "#" + s.path
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// Fetch implements persistence.DocumentStore.
func (s *Store) Fetch(ctx context.Context) (persistence.Blob, bool, error) {
	var (
		blob    persistence.Blob
		found   bool
		version string
	)
	err := withRetry(ctx, s.retry, func() error {
		row := s.db.QueryRowContext(ctx, `SELECT content, version FROM documents WHERE path = ?`, s.path)
		switch err := row.Scan(&blob.Content, &version); {
		case errors.Is(err, sql.ErrNoRows):
			found = false
			return nil
		case err != nil:
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return persistence.Blob{}, false, s.classify("fetch", err)
	}
	if !found {
		return persistence.Blob{}, false, nil
	}
	blob.Version = persistence.Version(version)
	return blob, true, nil
}

// Write implements persistence.DocumentStore.
func (s *Store) Write(ctx context.Context, content []byte, expected persistence.Version) (persistence.Version, error) {
	next := ContentVersion(content)
	writtenAt := s.now().UTC().Format(time.RFC3339Nano)

	err := withRetry(ctx, s.retry, func() error {
		return withTransaction(ctx, s.db, func(tx *sql.Tx) error {
			if expected.IsZero() {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO documents (path, content, version, updated_at) VALUES (?, ?, ?, ?)`,
					s.path, content, string(next), writtenAt); err != nil {
					return err
				}
			} else if err := s.compareAndSwap(ctx, tx, content, expected, next, writtenAt); err != nil {
				return err
			}

			_, err := tx.ExecContext(ctx,
				`INSERT INTO document_history (path, version, previous_version, content, written_at) VALUES (?, ?, ?, ?, ?)`,
				s.path, string(next), string(expected), content, writtenAt)
			return err
		})
	})

	var conflict *persistence.ConflictError
	switch {
	case err == nil:
		return next, nil
	case errors.As(err, &conflict):
		return persistence.NoVersion, conflict
	case errors.Is(err, errUnique):
		return persistence.NoVersion, persistence.AlreadyExists(s.path)
	}
	return persistence.NoVersion, s.classify("write", err)
}

func (s *Store) compareAndSwap(ctx context.Context, tx *sql.Tx, content []byte, expected, next persistence.Version, writtenAt string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET content = ?, version = ?, updated_at = ? WHERE path = ? AND version = ?`,
		content, string(next), writtenAt, s.path, string(expected))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	conflict := &persistence.ConflictError{Path: s.path, Expected: expected}
	var current string
	switch err := tx.QueryRowContext(ctx, `SELECT version FROM documents WHERE path = ?`, s.path).Scan(&current); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		conflict.Current = persistence.Version(current)
	}
	return conflict
}

// History returns up to limit revisions, newest first. A limit <= 0 returns all.
func (s *Store) History(ctx context.Context, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, previous_version, content, written_at FROM document_history WHERE path = ? ORDER BY id DESC LIMIT ?`,
		s.path, limit)
	if err != nil {
		return nil, s.classify("history", mapError(err))
	}
	defer rows.Close()

	var revisions []Revision
	for rows.Next() {
		var (
			r                 Revision
			version, previous string
			writtenAt         string
		)
		if err := rows.Scan(&version, &previous, &r.Content, &writtenAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan history: %w", err)
		}
		r.Version = persistence.Version(version)
		r.PreviousVersion = persistence.Version(previous)
		if t, err := time.Parse(time.RFC3339Nano, writtenAt); err == nil {
			r.WrittenAt = t
		}
		revisions = append(revisions, r)
	}
	return revisions, rows.Err()
}

func (s *Store) classify(op string, err error) error {
	if errors.Is(err, errBusy) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return persistence.Transient("sqlite "+op, err)
	}
	return fmt.Errorf("sqlite: %s %s: %w", op, s.path, err)
}
