package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the ISO calendar date layout used for document keys.
const DateLayout = "2006-01-02"

var weekKeyPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// ParseDate parses an ISO calendar date key.
func ParseDate(key string) (time.Time, error) {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("domain: invalid date %q", key)
	}
	return t, nil
}

// IsDate reports whether key is a valid ISO calendar date.
func IsDate(key string) bool {
	_, err := ParseDate(key)
	return err == nil
}

// DateKey formats t as a document date key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// WeekKey returns the ISO week identifier (YYYY-Www) containing t.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// ParseWeekKey splits a YYYY-Www key and checks the week exists in that ISO year.
func ParseWeekKey(key string) (year, week int, err error) {
	m := weekKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, fmt.Errorf("domain: invalid week key %q", key)
	}
	year, _ = strconv.Atoi(m[1])
	week, _ = strconv.Atoi(m[2])
	if week < 1 || week > ISOWeeksInYear(year) {
		return 0, 0, fmt.Errorf("domain: week %d does not exist in %d", week, year)
	}
	return year, week, nil
}

// IsWeekKey reports whether key is a valid ISO week identifier.
func IsWeekKey(key string) bool {
	_, _, err := ParseWeekKey(key)
	return err == nil
}

// ISOWeeksInYear returns 52 or 53 depending on the ISO calendar of year.
func ISOWeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 12, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// WeekStart returns the Monday (UTC midnight) of the ISO week identified by key.
func WeekStart(key string) (time.Time, error) {
	year, week, err := ParseWeekKey(key)
	if err != nil {
		return time.Time{}, err
	}
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, (week-1)*7), nil
}

// MondayOf returns midnight of the Monday on or before t, in t's location.
func MondayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
