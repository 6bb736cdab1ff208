package domain

import (
	"maps"
	"slices"
)

// Section names a top-level mapping of the document.
type Section string

const (
	// SectionAttendance holds inspection check-ins keyed by ISO date.
	SectionAttendance Section = "kontrollen"
	// SectionWeeklyResponsibility holds the responsible person keyed by ISO week.
	SectionWeeklyResponsibility Section = "wochenverantwortung"
	// SectionPlanning holds planning entries keyed by ISO date.
	SectionPlanning Section = "planung"
)

// Sections lists the canonical sections in serialization order.
func Sections() []Section {
	return []Section{SectionAttendance, SectionWeeklyResponsibility, SectionPlanning}
}

// Slot identifies an opening-hours staffing slot within a day.
type Slot string

const (
	SlotMorning   Slot = "Morgen"
	SlotAfternoon Slot = "Nachmittag"
	SlotEvening   Slot = "Abend"
)

// Slots returns the fixed slot set in display order.
func Slots() []Slot {
	return []Slot{SlotMorning, SlotAfternoon, SlotEvening}
}

// Valid reports whether the slot belongs to the fixed slot set.
func (s Slot) Valid() bool {
	return slices.Contains(Slots(), s)
}

// AttendanceRecord is one day's inspection log.
type AttendanceRecord struct {
	StaffMember string `json:"mitarbeiter"`
	Note        string `json:"bemerkung"`
}

// PlanningEntry is a day's staffing plan plus optional class visit and note.
type PlanningEntry struct {
	OpeningSlots map[Slot][]string `json:"oeffnungszeiten"`
	ClassVisit   string            `json:"klassenbesuch,omitempty"`
	Note         string            `json:"bemerkung,omitempty"`
}

// Clone returns a deep copy of the entry.
func (p PlanningEntry) Clone() PlanningEntry {
	out := p
	out.OpeningSlots = make(map[Slot][]string, len(p.OpeningSlots))
	for slot, staff := range p.OpeningSlots {
		out.OpeningSlots[slot] = slices.Clone(staff)
	}
	return out
}

// Equal reports whether two entries describe the same plan. A missing slot and
// an empty slot are considered equal.
func (p PlanningEntry) Equal(other PlanningEntry) bool {
	if p.ClassVisit != other.ClassVisit || p.Note != other.Note {
		return false
	}
	for _, slot := range unionSlots(p.OpeningSlots, other.OpeningSlots) {
		if !slices.Equal(p.OpeningSlots[slot], other.OpeningSlots[slot]) {
			return false
		}
	}
	return true
}

// Staff returns the people assigned to the slot, in display order.
func (p PlanningEntry) Staff(slot Slot) []string {
	return slices.Clone(p.OpeningSlots[slot])
}

func unionSlots(a, b map[Slot][]string) []Slot {
	seen := make(map[Slot]struct{}, len(a)+len(b))
	for slot := range a {
		seen[slot] = struct{}{}
	}
	for slot := range b {
		seen[slot] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Document is the canonical shared state. All three sections are always non-nil
// after NewDocument, Clone or Decode.
type Document struct {
	Attendance           map[string]AttendanceRecord `json:"kontrollen"`
	WeeklyResponsibility map[string]string           `json:"wochenverantwortung"`
	Planning             map[string]PlanningEntry    `json:"planung"`
}

// NewDocument returns an empty canonical document.
func NewDocument() Document {
	return Document{
		Attendance:           map[string]AttendanceRecord{},
		WeeklyResponsibility: map[string]string{},
		Planning:             map[string]PlanningEntry{},
	}
}

// Clone returns a deep copy with all sections allocated.
func (d Document) Clone() Document {
	out := NewDocument()
	maps.Copy(out.Attendance, d.Attendance)
	maps.Copy(out.WeeklyResponsibility, d.WeeklyResponsibility)
	for date, entry := range d.Planning {
		out.Planning[date] = entry.Clone()
	}
	return out
}

// Equal reports whether both documents hold the same logical content.
func (d Document) Equal(other Document) bool {
	if !maps.Equal(d.Attendance, other.Attendance) {
		return false
	}
	if !maps.Equal(d.WeeklyResponsibility, other.WeeklyResponsibility) {
		return false
	}
	return maps.EqualFunc(d.Planning, other.Planning, PlanningEntry.Equal)
}

// IsEmpty reports whether no section holds any entry.
func (d Document) IsEmpty() bool {
	return len(d.Attendance) == 0 && len(d.WeeklyResponsibility) == 0 && len(d.Planning) == 0
}
