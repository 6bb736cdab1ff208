package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/openlibrary-kontrolle/internal/domain"
	"github.com/example/openlibrary-kontrolle/internal/logging"
	"github.com/example/openlibrary-kontrolle/internal/persistence"
	"github.com/example/openlibrary-kontrolle/internal/schema"
)

const (
	// DefaultStoreTimeout bounds a single store call.
	DefaultStoreTimeout = 15 * time.Second
	// DefaultBaseCacheSize is the number of recently seen revisions kept for
	// conflict resolution.
	DefaultBaseCacheSize = 64
)

// Snapshot is a canonical document together with the version it was read or
// written at. A zero Version means the document does not exist yet.
type Snapshot struct {
	Document domain.Document
	Version  persistence.Version
}

// Options configures a StateRepository. Zero values select defaults.
type Options struct {
	Roster        domain.Roster
	Location      *time.Location
	Now           func() time.Time
	StoreTimeout  time.Duration
	BaseCacheSize int
	OperationID   func() string
	Logger        *slog.Logger
}

// StateRepository loads, migrates and saves the shared document. It is the only
// component that writes to the DocumentStore. Concurrent use is safe: all
// coordination with other writers goes through the store's conditional write.
type StateRepository struct {
	store       persistence.DocumentStore
	roster      domain.Roster
	location    *time.Location
	now         func() time.Time
	timeout     time.Duration
	bases       *lru.Cache[persistence.Version, domain.Document]
	operationID func() string
	logger      *slog.Logger
	storeName   string
}

// NewStateRepository constructs a repository over store.
func NewStateRepository(store persistence.DocumentStore, opts Options) (*StateRepository, error) {
	if store == nil {
		return nil, errors.New("application: document store is required")
	}
	if opts.Roster.Len() == 0 {
		roster, err := domain.NewRoster(domain.DefaultRosterNames)
		if err != nil {
			return nil, err
		}
		opts.Roster = roster
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.BaseCacheSize <= 0 {
		opts.BaseCacheSize = DefaultBaseCacheSize
	}
	if opts.OperationID == nil {
		opts.OperationID = logging.NewOperationID
	}

	bases, err := lru.New[persistence.Version, domain.Document](opts.BaseCacheSize)
	if err != nil {
		return nil, fmt.Errorf("application: base cache: %w", err)
	}

	storeName := fmt.Sprintf("%T", store)
	if named, ok := store.(persistence.Named); ok {
		storeName = named.Location()
	}

	return &StateRepository{
		store:       store,
		roster:      opts.Roster,
		location:    opts.Location,
		now:         opts.Now,
		timeout:     opts.StoreTimeout,
		bases:       bases,
		operationID: opts.OperationID,
		logger:      defaultLogger(opts.Logger),
		storeName:   storeName,
	}, nil
}

func (r *StateRepository) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	attrs = append([]any{"operation_id", r.operationID(), "store", r.storeName}, attrs...)
	return serviceLogger(ctx, r.logger, "StateRepository", operation, attrs...)
}

// Roster returns the staff roster the repository validates against.
func (r *StateRepository) Roster() domain.Roster {
	return r.roster
}

// Today returns the current date key in the configured zone.
func (r *StateRepository) Today() string {
	return domain.DateKey(r.now().In(r.location))
}

// Now returns the current time in the configured zone.
func (r *StateRepository) Now() time.Time {
	return r.now().In(r.location)
}

// Load fetches and migrates the document. A missing document yields an empty
// canonical document with no version.
func (r *StateRepository) Load(ctx context.Context) (snap Snapshot, err error) {
	logger := r.loggerWith(ctx, "Load")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load document", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "document loaded", "version", snap.Version.String())
	}()

	snap, err = r.fetch(ctx, logger)
	return
}

// Save writes doc conditioned on version. On a version conflict it rebases the
// caller's edits onto the current remote document once; entries edited on both
// sides to different values fail with a ConcurrentModificationError. The
// rebase needs the document at version from this process's base cache; a
// stale version this process never loaded or saved always fails with a
// ConcurrentModificationError, never overwrites. doc is never modified, so
// callers keep their pending edit on failure.
func (r *StateRepository) Save(ctx context.Context, doc domain.Document, version persistence.Version) (snap Snapshot, err error) {
	logger := r.loggerWith(ctx, "Save", "expected_version", version.String())
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save document", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "document saved", "version", snap.Version.String())
	}()

	if err = domain.ValidateDocument(doc); err != nil {
		return
	}
	snap, err = r.save(ctx, logger, doc.Clone(), version)
	return
}

func (r *StateRepository) save(ctx context.Context, logger *slog.Logger, edited domain.Document, version persistence.Version) (Snapshot, error) {
	written, err := r.write(ctx, edited, version)
	switch {
	case err == nil:
		return Snapshot{Document: edited, Version: written}, nil
	case errors.Is(err, persistence.ErrConflict):
	case errors.Is(err, persistence.ErrAlreadyExists) && version.IsZero():
	default:
		return Snapshot{}, err
	}

	logger.InfoContext(ctx, "version conflict, rebasing edits", "error", err)
	return r.rebase(ctx, logger, edited, version)
}

func (r *StateRepository) rebase(ctx context.Context, logger *slog.Logger, edited domain.Document, version persistence.Version) (Snapshot, error) {
	base, ok := r.base(version)
	if !ok {
		return Snapshot{}, &ConcurrentModificationError{Reason: "base revision " + version.String() + " is unknown"}
	}

	remote, err := r.fetch(ctx, logger)
	if err != nil {
		return Snapshot{}, err
	}

	merged, changed, err := rebase(base, edited, remote.Document)
	if err != nil {
		return Snapshot{}, err
	}
	if !changed {
		logger.InfoContext(ctx, "edits already present remotely", "version", remote.Version.String())
		return remote, nil
	}

	written, err := r.write(ctx, merged, remote.Version)
	switch {
	case err == nil:
		return Snapshot{Document: merged, Version: written}, nil
	case errors.Is(err, persistence.ErrConflict), errors.Is(err, persistence.ErrAlreadyExists):
		return Snapshot{}, &ConcurrentModificationError{Reason: "document changed again during retry"}
	}
	return Snapshot{}, err
}

// base returns the document last seen at version. The absent document's base
// is always the empty document.
func (r *StateRepository) base(version persistence.Version) (domain.Document, bool) {
	if version.IsZero() {
		return domain.NewDocument(), true
	}
	doc, ok := r.bases.Get(version)
	if !ok {
		return domain.Document{}, false
	}
	return doc.Clone(), true
}

func (r *StateRepository) remember(snap Snapshot) {
	if !snap.Version.IsZero() {
		r.bases.Add(snap.Version, snap.Document.Clone())
	}
}

func (r *StateRepository) fetch(ctx context.Context, logger *slog.Logger) (Snapshot, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	blob, found, err := r.store.Fetch(callCtx)
	if err != nil {
		return Snapshot{}, storeError("fetch", err)
	}
	if !found {
		return Snapshot{Document: domain.NewDocument()}, nil
	}

	raw, err := schema.ParseRaw(blob.Content)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrUnreadableDocument, err)
	}
	doc, report := schema.Migrate(raw)
	if report.Changed() {
		logger.InfoContext(ctx, "document migrated",
			"shape", string(report.Shape),
			"steps", report.Applied,
			"dropped", report.Dropped,
		)
	}

	snap := Snapshot{Document: doc, Version: blob.Version}
	r.remember(snap)
	return Snapshot{Document: doc.Clone(), Version: blob.Version}, nil
}

func (r *StateRepository) write(ctx context.Context, doc domain.Document, expected persistence.Version) (persistence.Version, error) {
	content, err := domain.Encode(doc)
	if err != nil {
		return persistence.NoVersion, fmt.Errorf("application: encode document: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	written, err := r.store.Write(callCtx, content, expected)
	if err != nil {
		return persistence.NoVersion, storeError("write", err)
	}
	r.remember(Snapshot{Document: doc, Version: written})
	return written, nil
}

// storeError makes deadline and cancellation failures transient regardless of
// how the store reported them.
func storeError(op string, err error) error {
	if errors.Is(err, persistence.ErrTransient) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return persistence.Transient(op, err)
	}
	return err
}
