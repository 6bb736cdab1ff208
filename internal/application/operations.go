package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// mutation edits doc in place. Returning an error aborts without writing.
type mutation func(doc *domain.Document) error

// modify runs one load-modify-save cycle. When the mutation leaves the document
// unchanged no write is issued and the loaded snapshot is returned.
func (r *StateRepository) modify(ctx context.Context, logger *slog.Logger, fn mutation) (Snapshot, error) {
	loaded, err := r.fetch(ctx, logger)
	if err != nil {
		return Snapshot{}, err
	}

	edited := loaded.Document.Clone()
	if err := fn(&edited); err != nil {
		return Snapshot{}, err
	}
	if edited.Equal(loaded.Document) {
		logger.DebugContext(ctx, "no change to save", "version", loaded.Version.String())
		return loaded, nil
	}
	return r.save(ctx, logger, edited, loaded.Version)
}

func (r *StateRepository) run(ctx context.Context, operation string, attrs []any, fn mutation) (snap Snapshot, err error) {
	logger := r.loggerWith(ctx, operation, attrs...)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "operation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "operation completed", "version", snap.Version.String())
	}()

	snap, err = r.modify(ctx, logger, fn)
	return
}

// UpsertAttendance records who inspected on date, replacing any earlier record.
func (r *StateRepository) UpsertAttendance(ctx context.Context, date string, record domain.AttendanceRecord) (Snapshot, error) {
	normalized, err := domain.ValidateAttendance(r.roster, domain.AttendanceInput{
		Date:        date,
		StaffMember: record.StaffMember,
		Note:        record.Note,
	})
	date = strings.TrimSpace(date)
	if err != nil {
		return Snapshot{}, r.rejected(ctx, "UpsertAttendance", err, "date", date)
	}
	return r.run(ctx, "UpsertAttendance", []any{"date", date, "staff_member", normalized.StaffMember}, func(doc *domain.Document) error {
		doc.Attendance[date] = normalized
		return nil
	})
}

// CheckIn records an inspection by staff for today in the configured zone.
func (r *StateRepository) CheckIn(ctx context.Context, staff, note string) (Snapshot, error) {
	return r.UpsertAttendance(ctx, r.Today(), domain.AttendanceRecord{StaffMember: staff, Note: note})
}

// DeleteAttendance removes the record for date. Deleting a missing record is a
// no-op.
func (r *StateRepository) DeleteAttendance(ctx context.Context, date string) (Snapshot, error) {
	date = strings.TrimSpace(date)
	if err := domain.ValidateDateKey(date); err != nil {
		return Snapshot{}, r.rejected(ctx, "DeleteAttendance", err, "date", date)
	}
	return r.run(ctx, "DeleteAttendance", []any{"date", date}, func(doc *domain.Document) error {
		delete(doc.Attendance, date)
		return nil
	})
}

// UpdateAttendanceNote replaces the note of an existing record.
func (r *StateRepository) UpdateAttendanceNote(ctx context.Context, date, note string) (Snapshot, error) {
	date = strings.TrimSpace(date)
	if err := domain.ValidateDateKey(date); err != nil {
		return Snapshot{}, r.rejected(ctx, "UpdateAttendanceNote", err, "date", date)
	}
	note = strings.TrimSpace(note)
	return r.run(ctx, "UpdateAttendanceNote", []any{"date", date}, func(doc *domain.Document) error {
		record, ok := doc.Attendance[date]
		if !ok {
			return fmt.Errorf("attendance on %s: %w", date, ErrNotFound)
		}
		record.Note = note
		doc.Attendance[date] = record
		return nil
	})
}

// SetWeeklyResponsible assigns the responsible person for an ISO week.
func (r *StateRepository) SetWeeklyResponsible(ctx context.Context, weekKey, name string) (Snapshot, error) {
	weekKey = strings.TrimSpace(weekKey)
	staff, err := domain.ValidateWeekly(r.roster, domain.WeeklyInput{WeekKey: weekKey, StaffMember: name})
	if err != nil {
		return Snapshot{}, r.rejected(ctx, "SetWeeklyResponsible", err, "week", weekKey)
	}
	return r.run(ctx, "SetWeeklyResponsible", []any{"week", weekKey, "staff_member", staff}, func(doc *domain.Document) error {
		doc.WeeklyResponsibility[weekKey] = staff
		return nil
	})
}

// UpsertPlanningEntry replaces the planning entry for date.
func (r *StateRepository) UpsertPlanningEntry(ctx context.Context, date string, entry domain.PlanningEntry) (Snapshot, error) {
	slots := make(map[string][]string, len(entry.OpeningSlots))
	for slot, staff := range entry.OpeningSlots {
		slots[string(slot)] = staff
	}
	normalized, err := domain.ValidatePlanning(r.roster, domain.PlanningInput{
		Date:         date,
		OpeningSlots: slots,
		ClassVisit:   entry.ClassVisit,
		Note:         entry.Note,
	})
	date = strings.TrimSpace(date)
	if err != nil {
		return Snapshot{}, r.rejected(ctx, "UpsertPlanningEntry", err, "date", date)
	}
	return r.run(ctx, "UpsertPlanningEntry", []any{"date", date}, func(doc *domain.Document) error {
		doc.Planning[date] = normalized
		return nil
	})
}

// rejected logs a validation failure that stopped an operation before any
// store call.
func (r *StateRepository) rejected(ctx context.Context, operation string, err error, attrs ...any) error {
	r.loggerWith(ctx, operation, attrs...).WarnContext(ctx, "input rejected", "error", err, "error_kind", ErrorKind(err))
	return err
}
