package planning

import (
	"slices"
	"time"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// SlotPlan is one slot of one day.
type SlotPlan struct {
	Slot   domain.Slot `json:"slot"`
	Needed bool        `json:"needed"`
	Staff  []string    `json:"staff"`
}

// Day is the plan of a single calendar day.
type Day struct {
	Date       string       `json:"date"`
	Weekday    time.Weekday `json:"weekday"`
	Slots      []SlotPlan   `json:"slots"`
	ClassVisit string       `json:"klassenbesuch,omitempty"`
	Note       string       `json:"bemerkung,omitempty"`
}

// Understaffed lists needed slots nobody is assigned to.
func (d Day) Understaffed() []domain.Slot {
	var out []domain.Slot
	for _, plan := range d.Slots {
		if plan.Needed && len(plan.Staff) == 0 {
			out = append(out, plan.Slot)
		}
	}
	return out
}

// Week is the Monday-to-Sunday plan of an ISO week.
type Week struct {
	Key  string `json:"week"`
	Days []Day  `json:"days"`
}

// WeekPlan builds the plan of the ISO week containing weekStart. Each day lists
// all three slots with whether the opening rules need staff and who is assigned.
func (e *Engine) WeekPlan(doc domain.Document, weekStart time.Time) (Week, error) {
	return e.weekPlan(doc, domain.MondayOf(e.civilDate(weekStart)))
}

// WeekPlanForKey is WeekPlan for a YYYY-Www key.
func (e *Engine) WeekPlanForKey(doc domain.Document, key string) (Week, error) {
	monday, err := domain.WeekStart(key)
	if err != nil {
		return Week{}, err
	}
	return e.weekPlan(doc, monday)
}

func (e *Engine) weekPlan(doc domain.Document, monday time.Time) (Week, error) {
	sunday := monday.AddDate(0, 0, 6)
	open, err := e.openBetween(monday, sunday)
	if err != nil {
		return Week{}, err
	}

	week := Week{Key: domain.WeekKey(monday), Days: make([]Day, 0, 7)}
	for i := range 7 {
		date := monday.AddDate(0, 0, i)
		key := domain.DateKey(date)
		entry := doc.Planning[key]
		day := Day{
			Date:       key,
			Weekday:    date.Weekday(),
			Slots:      make([]SlotPlan, 0, len(domain.Slots())),
			ClassVisit: entry.ClassVisit,
			Note:       entry.Note,
		}
		for _, slot := range domain.Slots() {
			staff := entry.Staff(slot)
			if staff == nil {
				staff = []string{}
			}
			day.Slots = append(day.Slots, SlotPlan{
				Slot:   slot,
				Needed: slices.Contains(open[key], slot),
				Staff:  staff,
			})
		}
		week.Days = append(week.Days, day)
	}
	return week, nil
}
