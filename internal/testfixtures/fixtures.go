package testfixtures

import (
	"time"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// referenceTime is a Thursday inside the default holiday period.
var referenceTime = time.Date(2025, time.June, 12, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Roster returns the default staff roster.
func Roster() domain.Roster {
	return domain.MustRoster(domain.DefaultRosterNames...)
}

// SampleDocument returns a canonical document touching every section.
func SampleDocument() domain.Document {
	doc := domain.NewDocument()
	doc.Attendance["2025-06-10"] = domain.AttendanceRecord{StaffMember: "Aniko", Note: "ok"}
	doc.Attendance["2025-06-11"] = domain.AttendanceRecord{StaffMember: "Sarah"}
	doc.WeeklyResponsibility["2025-W24"] = "Aniko"
	doc.Planning["2025-06-12"] = domain.PlanningEntry{
		OpeningSlots: map[domain.Slot][]string{
			domain.SlotMorning:   {"Debora", "Janine"},
			domain.SlotAfternoon: {"Susanne"},
		},
		ClassVisit: "3b, 10:00",
	}
	return doc
}

// Legacy blobs in the three historical shapes.
var (
	// FlatLegacyBlob is the oldest shape: dated keys at the top level.
	FlatLegacyBlob = []byte(`{"2025-06-10": {"mitarbeiter":"Aniko","bemerkung":"ok"}, "wochenverantwortung": {"2025-W24":"Aniko"}, "unrelatedKey": 5}`)

	// PartialLegacyBlob has the attendance and weekly sections but no planning.
	PartialLegacyBlob = []byte(`{"kontrollen":{"2025-06-10":{"mitarbeiter":"Aniko","bemerkung":"ok"}},"wochenverantwortung":{"2025-W24":"Aniko"}}`)

	// ListSlotsLegacyBlob stores opening slots as a bare list.
	ListSlotsLegacyBlob = []byte(`{"kontrollen":{},"wochenverantwortung":{},"planung":{"2025-06-12":{"oeffnungszeiten":["Debora","Janine"],"bemerkung":"Sommerfest"}}}`)
)
