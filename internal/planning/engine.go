package planning

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// Rule marks a slot as needing staff on every day its recurrence matches.
// RRule holds an RFC 5545 recurrence without DTSTART, e.g. "FREQ=WEEKLY;BYDAY=TU".
type Rule struct {
	Slot  domain.Slot
	RRule string
}

// ErrInvalidRule indicates a rule names an unknown slot or an unparsable recurrence.
var ErrInvalidRule = errors.New("planning: invalid rule")

// ErrInvalidWindow indicates the requested range ends before it starts.
var ErrInvalidWindow = errors.New("planning: range end precedes start")

// DefaultRules returns the library's regular opening hours.
func DefaultRules() []Rule {
	return []Rule{
		{Slot: domain.SlotMorning, RRule: "FREQ=WEEKLY;BYDAY=WE,TH,FR,SA"},
		{Slot: domain.SlotAfternoon, RRule: "FREQ=WEEKLY;BYDAY=TU,TH"},
	}
}

type compiledRule struct {
	slot   domain.Slot
	option rrule.ROption
}

// Engine expands opening rules into the slots that need staff on a given day.
type Engine struct {
	location *time.Location
	rules    []compiledRule
}

// NewEngine parses the rules. Instants passed to the engine are converted to loc
// before their calendar date is taken. If loc is nil, UTC is used.
func NewEngine(rules []Rule, loc *time.Location) (*Engine, error) {
	if loc == nil {
		loc = time.UTC
	}
	compiled := make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		if !rule.Slot.Valid() {
			return nil, fmt.Errorf("%w: rule %d: unknown slot %q", ErrInvalidRule, i, rule.Slot)
		}
		opt, err := rrule.StrToROption(rule.RRule)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %v", ErrInvalidRule, i, err)
		}
		if _, err := rrule.NewRRule(*opt); err != nil {
			return nil, fmt.Errorf("%w: rule %d: %v", ErrInvalidRule, i, err)
		}
		compiled = append(compiled, compiledRule{slot: rule.Slot, option: *opt})
	}
	return &Engine{location: loc, rules: compiled}, nil
}

// Location returns the zone used to derive calendar dates.
func (e *Engine) Location() *time.Location {
	return e.location
}

// OpenSlots returns, per date key between from and to inclusive, the slots that
// need staff. Days without any open slot are omitted.
func (e *Engine) OpenSlots(from, to time.Time) (map[string][]domain.Slot, error) {
	start, end := e.civilDate(from), e.civilDate(to)
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}
	return e.openBetween(start, end)
}

// openBetween expects UTC midnights.
func (e *Engine) openBetween(start, end time.Time) (map[string][]domain.Slot, error) {
	open := make(map[string][]domain.Slot)
	for _, rule := range e.rules {
		opt := rule.option
		opt.Dtstart = start
		r, err := rrule.NewRRule(opt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
		for _, day := range r.Between(start, end, true) {
			key := domain.DateKey(day)
			if !slices.Contains(open[key], rule.slot) {
				open[key] = append(open[key], rule.slot)
			}
		}
	}
	for key, slots := range open {
		open[key] = slotOrder(slots)
	}
	return open, nil
}

// civilDate returns UTC midnight of t's calendar date in the engine's zone.
func (e *Engine) civilDate(t time.Time) time.Time {
	y, m, d := t.In(e.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func slotOrder(slots []domain.Slot) []domain.Slot {
	out := make([]domain.Slot, 0, len(slots))
	for _, slot := range domain.Slots() {
		if slices.Contains(slots, slot) {
			out = append(out, slot)
		}
	}
	return out
}
