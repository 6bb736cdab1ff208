package application

import (
	"maps"
	"slices"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// entryRef addresses one mergeable unit: a single key inside one section.
// Planning entries are merged as a whole; slot lists inside one day are not
// reconciled separately.
type entryRef struct {
	Section domain.Section
	Key     string
}

// changedEntries lists every entry whose presence or value differs between
// base and edited, in section then key order.
func changedEntries(base, edited domain.Document) []entryRef {
	var refs []entryRef
	collect := func(section domain.Section, keys []string) {
		for _, key := range keys {
			ref := entryRef{Section: section, Key: key}
			if !sameEntry(base, edited, ref) {
				refs = append(refs, ref)
			}
		}
	}
	collect(domain.SectionAttendance, unionKeys(base.Attendance, edited.Attendance))
	collect(domain.SectionWeeklyResponsibility, unionKeys(base.WeeklyResponsibility, edited.WeeklyResponsibility))
	collect(domain.SectionPlanning, unionKeys(base.Planning, edited.Planning))
	return refs
}

// sameEntry reports whether a and b agree on the presence and value of ref.
func sameEntry(a, b domain.Document, ref entryRef) bool {
	switch ref.Section {
	case domain.SectionAttendance:
		av, aok := a.Attendance[ref.Key]
		bv, bok := b.Attendance[ref.Key]
		return aok == bok && av == bv
	case domain.SectionWeeklyResponsibility:
		av, aok := a.WeeklyResponsibility[ref.Key]
		bv, bok := b.WeeklyResponsibility[ref.Key]
		return aok == bok && av == bv
	case domain.SectionPlanning:
		av, aok := a.Planning[ref.Key]
		bv, bok := b.Planning[ref.Key]
		return aok == bok && av.Equal(bv)
	}
	return false
}

// copyEntry makes dst agree with src on ref, deleting the key when src lacks it.
func copyEntry(dst *domain.Document, src domain.Document, ref entryRef) {
	switch ref.Section {
	case domain.SectionAttendance:
		if v, ok := src.Attendance[ref.Key]; ok {
			dst.Attendance[ref.Key] = v
		} else {
			delete(dst.Attendance, ref.Key)
		}
	case domain.SectionWeeklyResponsibility:
		if v, ok := src.WeeklyResponsibility[ref.Key]; ok {
			dst.WeeklyResponsibility[ref.Key] = v
		} else {
			delete(dst.WeeklyResponsibility, ref.Key)
		}
	case domain.SectionPlanning:
		if v, ok := src.Planning[ref.Key]; ok {
			dst.Planning[ref.Key] = v.Clone()
		} else {
			delete(dst.Planning, ref.Key)
		}
	}
}

// rebase replays the edits made on base onto remote. It fails with a
// ConcurrentModificationError naming the first entry that remote changed to a
// value different from both base and edited. The second result reports whether
// remote needed any change at all.
func rebase(base, edited, remote domain.Document) (domain.Document, bool, error) {
	merged := remote.Clone()
	changed := false
	for _, ref := range changedEntries(base, edited) {
		switch {
		case sameEntry(remote, edited, ref):
			// already applied remotely
		case sameEntry(remote, base, ref):
			copyEntry(&merged, edited, ref)
			changed = true
		default:
			return domain.Document{}, false, &ConcurrentModificationError{Section: ref.Section, Key: ref.Key}
		}
	}
	return merged, changed, nil
}

func unionKeys[V any](a, b map[string]V) []string {
	keys := slices.Collect(maps.Keys(a))
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
