package calendar

import (
	"maps"
	"slices"
	"strings"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// Event is an all-day calendar entry derived from the planning section.
type Event struct {
	Title string `json:"title"`
	Start string `json:"start"`
}

// Events renders planning entries in date order. A day yields up to three
// events: assigned opening slots, the class visit and the note.
func Events(planning map[string]domain.PlanningEntry) []Event {
	var events []Event
	for _, date := range slices.Sorted(maps.Keys(planning)) {
		entry := planning[date]
		if staffed := openingSummary(entry); staffed != "" {
			events = append(events, Event{Title: "Öffnungszeiten: " + staffed, Start: date})
		}
		if entry.ClassVisit != "" {
			events = append(events, Event{Title: "Klassenbesuch: " + entry.ClassVisit, Start: date})
		}
		if entry.Note != "" {
			events = append(events, Event{Title: "Bemerkung: " + entry.Note, Start: date})
		}
	}
	return events
}

// openingSummary formats "Morgen: A, B; Nachmittag: C", skipping empty slots.
func openingSummary(entry domain.PlanningEntry) string {
	var parts []string
	for _, slot := range domain.Slots() {
		staff := entry.OpeningSlots[slot]
		if len(staff) == 0 {
			continue
		}
		parts = append(parts, string(slot)+": "+strings.Join(staff, ", "))
	}
	return strings.Join(parts, "; ")
}
