package persistence

import "context"

// Version is the opaque revision token of a stored document. The zero value
// means "no version": the document has never been observed to exist.
type Version string

// NoVersion is the version of an absent document.
const NoVersion Version = ""

// IsZero reports whether v names no revision.
func (v Version) IsZero() bool {
	return v == NoVersion
}

// String implements fmt.Stringer.
func (v Version) String() string {
	if v == NoVersion {
		return "<none>"
	}
	return string(v)
}

// Blob is the stored content together with the version it was read at.
type Blob struct {
	Content []byte
	Version Version
}

// DocumentStore is the sole contact point with the remote blob. Implementations
// must make the conditional write atomic.
//
// Writes must only be issued by the application StateRepository; other
// packages read through it as well.
type DocumentStore interface {
	// Fetch returns the current content. A missing document is reported with
	// found == false and a nil error.
	Fetch(ctx context.Context) (blob Blob, found bool, err error)

	// Write stores content if expected is still the current version and returns
	// the new version. With expected == NoVersion the write creates the document
	// and fails with ErrAlreadyExists if it exists. A stale expected version,
	// including one for a document that has since disappeared, fails with a
	// *ConflictError.
	Write(ctx context.Context, content []byte, expected Version) (Version, error)
}

// Named is implemented by stores that can describe their location for logs.
type Named interface {
	Location() string
}
