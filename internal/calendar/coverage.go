package calendar

import (
	"time"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// Status classifies a day of the inspection period.
type Status string

const (
	// StatusInspected marks a day with an attendance record.
	StatusInspected Status = "inspected"
	// StatusNear marks a day without a record but with one within NearWindowDays.
	StatusNear Status = "near"
	// StatusMissing marks a day with no inspection nearby.
	StatusMissing Status = "missing"
)

// NearWindowDays is how many days either side of a day count as nearby.
const NearWindowDays = 2

// DayCoverage is the inspection state of one day.
type DayCoverage struct {
	Date        string `json:"date"`
	Status      Status `json:"status"`
	StaffMember string `json:"mitarbeiter,omitempty"`
	Note        string `json:"bemerkung,omitempty"`
}

// StatusOf classifies day against the attendance section.
func StatusOf(attendance map[string]domain.AttendanceRecord, day time.Time) Status {
	if _, ok := attendance[domain.DateKey(day)]; ok {
		return StatusInspected
	}
	for offset := -NearWindowDays; offset <= NearWindowDays; offset++ {
		if offset == 0 {
			continue
		}
		if _, ok := attendance[domain.DateKey(day.AddDate(0, 0, offset))]; ok {
			return StatusNear
		}
	}
	return StatusMissing
}

// Coverage classifies each day, keeping the input order.
func Coverage(attendance map[string]domain.AttendanceRecord, days []time.Time) []DayCoverage {
	out := make([]DayCoverage, 0, len(days))
	for _, day := range days {
		entry := DayCoverage{Date: domain.DateKey(day), Status: StatusOf(attendance, day)}
		if record, ok := attendance[entry.Date]; ok {
			entry.StaffMember = record.StaffMember
			entry.Note = record.Note
		}
		out = append(out, entry)
	}
	return out
}
