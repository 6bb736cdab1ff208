package migration

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks. Every failure returned by this package
// wraps exactly one of them or a database error.
var (
	ErrMigrationFailed      = errors.New("migration execution failed")
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
	ErrVersionConflict      = errors.New("migration version conflict")
	ErrInvalidVersion       = errors.New("invalid migration version")
	ErrDuplicateVersion     = errors.New("duplicate migration version")
	// ErrChecksumMismatch means an applied file was edited afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// MigrationError records which step of which migration failed. Source is the
// migration file, or the offending statement for bookkeeping queries.
type MigrationError struct {
	Version string
	Source  string
	Step    string
	Err     error
}

func (e *MigrationError) Error() string {
	var b strings.Builder
	b.WriteString("migration")
	if e.Version != "" {
		b.WriteString(" ")
		b.WriteString(e.Version)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s)", e.Source)
	}
	fmt.Fprintf(&b, ": %s: %v", e.Step, e.Err)
	return b.String()
}

func (e *MigrationError) Unwrap() error { return e.Err }

// NewMigrationError wraps a failure tied to a migration file.
func NewMigrationError(version, filePath, step string, err error) *MigrationError {
	return &MigrationError{Version: version, Source: filePath, Step: step, Err: err}
}

// NewDatabaseError wraps a failure of the database itself. Only the first
// line of the statement is kept.
func NewDatabaseError(version, statement, step string, err error) *MigrationError {
	first, _, _ := strings.Cut(strings.TrimSpace(statement), "\n")
	return &MigrationError{Version: version, Source: strings.TrimSpace(first), Step: step, Err: err}
}
