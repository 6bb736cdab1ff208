package schema

import (
	"encoding/json"
	"slices"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// Shape tags the layout of a raw document.
type Shape string

const (
	ShapeFlat      Shape = "flat"
	ShapePartial   Shape = "partial"
	ShapeCanonical Shape = "canonical"
)

// Raw is a decoded but uninterpreted document: top-level keys mapped to their
// undecoded JSON values.
type Raw map[string]json.RawMessage

// Shape classifies the raw document by which canonical sections it carries.
func (r Raw) Shape() Shape {
	present := 0
	for _, section := range domain.Sections() {
		if _, ok := r[string(section)]; ok {
			present++
		}
	}
	switch present {
	case 0:
		return ShapeFlat
	case len(domain.Sections()):
		return ShapeCanonical
	default:
		return ShapePartial
	}
}

func (r Raw) clone() Raw {
	out := make(Raw, len(r))
	for k, v := range r {
		out[k] = slices.Clone(v)
	}
	return out
}

// Step is one named migration. Applies must be cheap and side-effect free;
// Apply must be total and leave a document on which Applies reports false or
// Apply is a no-op.
type Step struct {
	Name    string
	Applies func(Raw) bool
	Apply   func(Raw, *Report) Raw
}

// Report summarises what a migration did.
type Report struct {
	Shape   Shape
	Applied []string
	Dropped []string
}

// Changed reports whether the migration altered the document.
func (r Report) Changed() bool {
	return len(r.Applied) > 0 || len(r.Dropped) > 0
}

func (r *Report) drop(path string) {
	r.Dropped = append(r.Dropped, path)
}
