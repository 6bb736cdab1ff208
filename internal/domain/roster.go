package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultRosterNames is the staff list the library started with.
var DefaultRosterNames = []string{"Aniko", "Daniela", "Debora", "Janine", "Sarah", "Susanne"}

// Roster is the immutable set of staff members allowed in the document.
type Roster struct {
	names []string
}

// NewRoster builds a roster from trimmed, unique, non-empty names.
func NewRoster(names []string) (Roster, error) {
	if len(names) == 0 {
		return Roster{}, errors.New("domain: roster must contain at least one name")
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return Roster{}, errors.New("domain: roster names must not be blank")
		}
		if slices.Contains(out, trimmed) {
			return Roster{}, fmt.Errorf("domain: duplicate roster name %q", trimmed)
		}
		out = append(out, trimmed)
	}
	return Roster{names: out}, nil
}

// MustRoster is NewRoster for static, known-good lists.
func MustRoster(names ...string) Roster {
	r, err := NewRoster(names)
	if err != nil {
		panic(err)
	}
	return r
}

// Contains reports whether name is a roster member.
func (r Roster) Contains(name string) bool {
	return slices.Contains(r.names, name)
}

// Names returns the roster in configured order.
func (r Roster) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of staff members.
func (r Roster) Len() int {
	return len(r.names)
}
