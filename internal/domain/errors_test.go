package domain

import "testing"

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"b": "bad", "a": "invalid"}}
	if got := withFields.Error(); got != "validation failed: a: invalid; b: bad" {
		t.Fatalf("expected sorted field summary, got %q", got)
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.Add("first", "value")
	base.Add("first", "ignored")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected first message to win, got %q", got)
	}

	base.Merge(&ValidationError{FieldErrors: map[string]string{"second": "another"}})
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy field, got %q", got)
	}

	base.Merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestValidationError_OrNil(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).OrNil(); err != nil {
		t.Fatalf("expected nil for empty validation error, got %v", err)
	}
	if err := (&ValidationError{FieldErrors: map[string]string{"f": "x"}}).OrNil(); err == nil {
		t.Fatalf("expected populated validation error to be returned")
	}
}
