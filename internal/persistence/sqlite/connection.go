package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/openlibrary-kontrolle/internal/persistence/sqlite/migration"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const schemaDir = "schema"

// OpenDatabase opens the SQLite database described by cfg and brings its
// schema up to date.
func OpenDatabase(ctx context.Context, cfg migration.SQLiteConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := migration.NewConnectionManager(cfg).GetConnection(ctx)
	if err != nil {
		return nil, err
	}

	manager := migration.NewMigrationManager(
		migration.NewFileScanner(schemaFS),
		migration.NewSQLiteExecutor(db),
		schemaDir,
		logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.DSN, err)
	}
	return db, nil
}

// withTransaction runs fn in a transaction that is committed only when fn
// returns nil. A panic in fn rolls back before propagating.
func withTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && err != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

var (
	errBusy   = errors.New("sqlite: database busy")
	errUnique = errors.New("sqlite: unique constraint violated")
)

// mapError folds driver messages into the sentinel errors the store branches on.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", errUnique, err)
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "database table is locked"),
		strings.Contains(msg, "SQLITE_BUSY"):
		return fmt.Errorf("%w: %w", errBusy, err)
	}
	return err
}

// RetryConfig bounds the retries of busy database operations.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the retry policy used by the document store.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// wait returns the pause before the given retry, starting at 1.
func (c RetryConfig) wait(retry int) time.Duration {
	d := float64(c.InitialDelay)
	for i := 1; i < retry; i++ {
		d *= c.BackoffFactor
	}
	if c.MaxDelay > 0 && time.Duration(d) > c.MaxDelay {
		return c.MaxDelay
	}
	return time.Duration(d)
}

// withRetry repeats fn while it fails with errBusy, at most MaxRetries extra
// times. Errors come back already mapped.
func withRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	err := mapError(fn())
	for retry := 1; retry <= cfg.MaxRetries && errors.Is(err, errBusy); retry++ {
		timer := time.NewTimer(cfg.wait(retry))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		err = mapError(fn())
	}
	if errors.Is(err, errBusy) {
		return fmt.Errorf("still busy after %d retries: %w", cfg.MaxRetries, err)
	}
	return err
}
