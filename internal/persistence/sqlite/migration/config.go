package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteConfig holds SQLite connection settings.
type SQLiteConfig struct {
	// DSN is the database file path or ":memory:".
	DSN string

	// BusyTimeout sets how long SQLite waits on a locked database.
	BusyTimeout time.Duration

	// JournalMode is one of DELETE, TRUNCATE, PERSIST, MEMORY, WAL or OFF.
	JournalMode string

	// Synchronous is one of OFF, NORMAL, FULL or EXTRA.
	Synchronous string

	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// ConnectionManager opens configured SQLite connections.
type ConnectionManager interface {
	GetConnection(ctx context.Context) (*sql.DB, error)
	ValidateConfig() error
}

type sqliteConnectionManager struct {
	config SQLiteConfig
}

// NewConnectionManager creates a new SQLite connection manager.
func NewConnectionManager(config SQLiteConfig) ConnectionManager {
	return &sqliteConnectionManager{config: config}
}

// GetConnection opens the database, applies the PRAGMAs and pings it.
func (cm *sqliteConnectionManager) GetConnection(ctx context.Context) (*sql.DB, error) {
	if err := cm.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	if err := cm.ensureDirectory(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cm.config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if cm.config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cm.config.MaxOpenConns)
		db.SetMaxIdleConns(cm.config.MaxOpenConns)
	}
	if cm.config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cm.config.ConnMaxLifetime)
	}

	if err := cm.configure(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure SQLite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return db, nil
}

func (cm *sqliteConnectionManager) configure(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cm.config.BusyTimeout.Milliseconds()),
	}
	if cm.config.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = "+cm.config.JournalMode)
	}
	if cm.config.Synchronous != "" {
		pragmas = append(pragmas, "PRAGMA synchronous = "+cm.config.Synchronous)
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

func (cm *sqliteConnectionManager) ensureDirectory() error {
	if cm.config.DSN == ":memory:" {
		return nil
	}
	dir := filepath.Dir(cm.config.DSN)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

var (
	journalModes = []string{"DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF"}
	syncModes    = []string{"OFF", "NORMAL", "FULL", "EXTRA"}
)

// ValidateConfig reports every problem with the configuration at once.
func (cm *sqliteConnectionManager) ValidateConfig() error {
	c := cm.config
	var errs []error
	if c.DSN == "" {
		errs = append(errs, errors.New("DSN is empty"))
	}
	if c.BusyTimeout < 0 || c.ConnMaxLifetime < 0 || c.MaxOpenConns < 0 {
		errs = append(errs, errors.New("timeouts and connection limits must not be negative"))
	}
	if c.JournalMode != "" && !slices.Contains(journalModes, c.JournalMode) {
		errs = append(errs, fmt.Errorf("journal mode %q is not one of %v", c.JournalMode, journalModes))
	}
	if c.Synchronous != "" && !slices.Contains(syncModes, c.Synchronous) {
		errs = append(errs, fmt.Errorf("synchronous mode %q is not one of %v", c.Synchronous, syncModes))
	}
	return errors.Join(errs...)
}

// DefaultSQLiteConfig returns the settings used for the document database.
// It uses a single connection so writers are serialised.
func DefaultSQLiteConfig(databasePath string) SQLiteConfig {
	return SQLiteConfig{
		DSN:             databasePath,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
		MaxOpenConns:    1,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// TempFileTestSQLiteConfig returns settings for throwaway test databases.
func TempFileTestSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		DSN:          path,
		BusyTimeout:  time.Second,
		JournalMode:  "MEMORY",
		Synchronous:  "OFF",
		MaxOpenConns: 1,
	}
}
