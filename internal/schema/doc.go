// Package schema upgrades raw documents read from the store to the canonical
// three-section shape.
//
// Three historical shapes are recognised:
//
//   - ShapeFlat: the first check-in file, where every top-level key is an
//     ISO date mapping to {"mitarbeiter", "bemerkung"}.
//   - ShapePartial: some but not all of "kontrollen", "wochenverantwortung" and
//     "planung" are present, possibly next to leftover date keys.
//   - ShapeCanonical: all three sections are present.
//
// Migrate runs an ordered chain of named steps. Every step is total and
// idempotent, so running Migrate on its own output changes nothing. Migration
// never fails; entries that cannot be recovered are dropped and listed in the
// Report.
package schema
