package testfixtures

import (
	"sync"
	"time"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// Clock is a settable time source. Calendar dates are read in the clock's
// zone, which defaults to the zone of the start instant.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	zone *time.Location
}

// NewClock starts a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start, zone: start.Location()}
}

// InZone changes the zone used by Today and SetDate and returns the clock.
func (c *Clock) InZone(zone *time.Location) *Clock {
	c.mu.Lock()
	c.zone = zone
	c.mu.Unlock()
	return c
}

// Now returns the current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc exposes Now for Options.Now style injection. A nil clock falls back
// to the wall clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Today is the document date key of the current instant in the clock's zone.
func (c *Clock) Today() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.DateKey(c.now.In(c.zone))
}

// SetDate moves the clock to date, keeping the wall-clock time of day in the
// clock's zone.
func (c *Clock) SetDate(date string) error {
	day, err := domain.ParseDate(date)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	local := c.now.In(c.zone)
	c.now = time.Date(day.Year(), day.Month(), day.Day(), local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), c.zone)
	return nil
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	return c.step(func(t time.Time) time.Time { return t.Add(d) })
}

// AdvanceDays moves the clock forward by whole calendar days.
func (c *Clock) AdvanceDays(days int) time.Time {
	return c.step(func(t time.Time) time.Time { return t.AddDate(0, 0, days) })
}

func (c *Clock) step(fn func(time.Time) time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = fn(c.now)
	return c.now
}
