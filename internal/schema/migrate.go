package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// ErrNotObject is returned by ParseRaw when the content is JSON but not an object,
// or not JSON at all.
var ErrNotObject = errors.New("schema: document is not a JSON object")

// ParseRaw decodes stored bytes into a Raw document. Empty content and a bare
// null decode as an empty document.
func ParseRaw(data []byte) (Raw, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Raw{}, nil
	}
	var raw Raw
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if raw == nil {
		raw = Raw{}
	}
	return raw, nil
}

// Migrate upgrades raw to the canonical document. It never contacts the store
// and never fails.
func Migrate(raw Raw) (domain.Document, Report) {
	report := Report{Shape: raw.Shape()}
	work := raw.clone()
	for _, step := range Steps() {
		if !step.Applies(work) {
			continue
		}
		work = step.Apply(work, &report)
		report.Applied = append(report.Applied, step.Name)
	}
	return decodeSections(work, &report), report
}

// MigrateBytes is ParseRaw followed by Migrate.
func MigrateBytes(data []byte) (domain.Document, Report, error) {
	raw, err := ParseRaw(data)
	if err != nil {
		return domain.Document{}, Report{}, err
	}
	doc, report := Migrate(raw)
	return doc, report, nil
}

type planningWire struct {
	OpeningSlots map[string][]string `json:"oeffnungszeiten"`
	ClassVisit   string              `json:"klassenbesuch"`
	Note         string              `json:"bemerkung"`
}

// decodeSections turns the three canonical sections into typed values and
// drops whatever does not fit.
func decodeSections(raw Raw, report *Report) domain.Document {
	doc := domain.NewDocument()

	for key, value := range sectionEntries(raw, domain.SectionAttendance, report) {
		path := string(domain.SectionAttendance) + "." + key
		var record domain.AttendanceRecord
		if !domain.IsDate(key) || json.Unmarshal(value, &record) != nil || strings.TrimSpace(record.StaffMember) == "" {
			report.drop(path)
			continue
		}
		doc.Attendance[key] = record
	}

	for key, value := range sectionEntries(raw, domain.SectionWeeklyResponsibility, report) {
		path := string(domain.SectionWeeklyResponsibility) + "." + key
		var name string
		if !domain.IsWeekKey(key) || json.Unmarshal(value, &name) != nil || strings.TrimSpace(name) == "" {
			report.drop(path)
			continue
		}
		doc.WeeklyResponsibility[key] = name
	}

	for key, value := range sectionEntries(raw, domain.SectionPlanning, report) {
		path := string(domain.SectionPlanning) + "." + key
		var wire planningWire
		if !domain.IsDate(key) || json.Unmarshal(value, &wire) != nil {
			report.drop(path)
			continue
		}
		entry := domain.PlanningEntry{
			OpeningSlots: make(map[domain.Slot][]string, len(wire.OpeningSlots)),
			ClassVisit:   wire.ClassVisit,
			Note:         wire.Note,
		}
		for name, staff := range wire.OpeningSlots {
			slot := domain.Slot(name)
			if !slot.Valid() {
				report.drop(path + "." + name)
				continue
			}
			kept := make([]string, 0, len(staff))
			for _, person := range staff {
				if strings.TrimSpace(person) != "" {
					kept = append(kept, person)
				}
			}
			entry.OpeningSlots[slot] = kept
		}
		doc.Planning[key] = entry
	}

	slices.Sort(report.Dropped)
	return doc
}

// sectionEntries returns the entries of one section in key order. A section
// that is not an object is dropped as a whole.
func sectionEntries(raw Raw, section domain.Section, report *Report) iter.Seq2[string, json.RawMessage] {
	var entries map[string]json.RawMessage
	if data, ok := raw[string(section)]; ok {
		if err := json.Unmarshal(data, &entries); err != nil {
			report.drop(string(section))
			entries = nil
		}
	}
	return func(yield func(string, json.RawMessage) bool) {
		for _, key := range slices.Sorted(maps.Keys(entries)) {
			if !yield(key, entries[key]) {
				return
			}
		}
	}
}
