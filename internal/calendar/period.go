package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// ErrInvalidPeriod indicates a period whose end precedes its start.
var ErrInvalidPeriod = errors.New("calendar: period end precedes start")

// Period is an inclusive range of calendar dates.
type Period struct {
	Start time.Time
	End   time.Time
}

// ParsePeriod builds a period from two ISO date keys.
func ParsePeriod(start, end string) (Period, error) {
	s, err := domain.ParseDate(start)
	if err != nil {
		return Period{}, err
	}
	e, err := domain.ParseDate(end)
	if err != nil {
		return Period{}, err
	}
	if e.Before(s) {
		return Period{}, fmt.Errorf("%w: %s..%s", ErrInvalidPeriod, start, end)
	}
	return Period{Start: s, End: e}, nil
}

// Days returns the period's days up to and including today.
func (p Period) Days(today time.Time) []time.Time {
	return PeriodDays(p.Start, p.End, today)
}

// PeriodDays lists every date from start to the earlier of end and today, each
// as UTC midnight. Dates are taken in each argument's own location.
func PeriodDays(start, end, today time.Time) []time.Time {
	first, last := civil(start), civil(end)
	if t := civil(today); t.Before(last) {
		last = t
	}
	var days []time.Time
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}

// Weeks splits days into runs of seven counted from the first day and returns
// them newest run first. Days within a run keep their order.
func Weeks(days []time.Time) [][]time.Time {
	var weeks [][]time.Time
	for i := 0; i < len(days); i += 7 {
		weeks = append(weeks, days[i:min(i+7, len(days))])
	}
	for i, j := 0, len(weeks)-1; i < j; i, j = i+1, j-1 {
		weeks[i], weeks[j] = weeks[j], weeks[i]
	}
	return weeks
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
