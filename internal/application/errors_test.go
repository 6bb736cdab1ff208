package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/openlibrary-kontrolle/internal/domain"
	"github.com/example/openlibrary-kontrolle/internal/persistence"
)

func TestConcurrentModificationError(t *testing.T) {
	t.Parallel()

	keyed := &ConcurrentModificationError{Section: domain.SectionAttendance, Key: "2025-06-10"}
	if got := keyed.Error(); got != "application: kontrollen[2025-06-10] was changed by someone else; reload and retry" {
		t.Fatalf("unexpected message %q", got)
	}

	wrapped := fmt.Errorf("save: %w", &ConcurrentModificationError{Reason: "second conflict"})
	if !errors.Is(wrapped, ErrConcurrentModification) {
		t.Fatal("expected wrapped error to match ErrConcurrentModification")
	}
	var cmErr *ConcurrentModificationError
	if !errors.As(wrapped, &cmErr) || cmErr.Reason != "second conflict" {
		t.Fatalf("expected to recover reason, got %v", cmErr)
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	vErr := &domain.ValidationError{}
	vErr.Add("mitarbeiter", "required")

	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{vErr, "validation"},
		{&ConcurrentModificationError{}, "concurrent_modification"},
		{&persistence.ConflictError{Path: "p"}, "conflict"},
		{persistence.AlreadyExists("p"), "conflict"},
		{persistence.Transient("fetch", errors.New("timeout")), "transient"},
		{fmt.Errorf("note: %w", ErrNotFound), "not_found"},
		{fmt.Errorf("load: %w", ErrUnreadableDocument), "unreadable"},
		{errors.New("boom"), "unexpected"},
	}
	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
