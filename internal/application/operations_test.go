package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/openlibrary-kontrolle/internal/application"
	"github.com/example/openlibrary-kontrolle/internal/domain"
	"github.com/example/openlibrary-kontrolle/internal/persistence"
	"github.com/example/openlibrary-kontrolle/internal/testfixtures"
)

func TestValidationFailuresMakeNoStoreCalls(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		call func(*application.StateRepository) error
	}{
		{"unknown staff", func(r *application.StateRepository) error {
			_, err := r.UpsertAttendance(context.Background(), "2025-06-10", domain.AttendanceRecord{StaffMember: "Mallory"})
			return err
		}},
		{"blank staff check-in", func(r *application.StateRepository) error {
			_, err := r.CheckIn(context.Background(), "  ", "")
			return err
		}},
		{"bad date", func(r *application.StateRepository) error {
			_, err := r.UpsertAttendance(context.Background(), "2025-02-30", domain.AttendanceRecord{StaffMember: "Aniko"})
			return err
		}},
		{"bad delete date", func(r *application.StateRepository) error {
			_, err := r.DeleteAttendance(context.Background(), "gestern")
			return err
		}},
		{"bad note date", func(r *application.StateRepository) error {
			_, err := r.UpdateAttendanceNote(context.Background(), "", "note")
			return err
		}},
		{"bad week", func(r *application.StateRepository) error {
			_, err := r.SetWeeklyResponsible(context.Background(), "2025-W54", "Aniko")
			return err
		}},
		{"unknown slot", func(r *application.StateRepository) error {
			_, err := r.UpsertPlanningEntry(context.Background(), "2025-06-12", domain.PlanningEntry{
				OpeningSlots: map[domain.Slot][]string{"Mitternacht": {"Aniko"}},
			})
			return err
		}},
		{"planning staff not on roster", func(r *application.StateRepository) error {
			_, err := r.UpsertPlanningEntry(context.Background(), "2025-06-12", domain.PlanningEntry{
				OpeningSlots: map[domain.Slot][]string{domain.SlotMorning: {"Mallory"}},
			})
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := testfixtures.NewRecordingStore(persistence.NewMemoryStore("kontrollen.json"))
			err := tc.call(newRepository(t, store))

			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if store.Calls() != 0 {
				t.Fatalf("expected no store calls, got %d", store.Calls())
			}
		})
	}
}

func TestCheckInUsesConfiguredZone(t *testing.T) {
	t.Parallel()
	zurich, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	store := persistence.NewMemoryStore("kontrollen.json")
	clock := testfixtures.NewClock(time.Date(2025, time.June, 10, 22, 30, 0, 0, time.UTC))
	repo := newRepository(t, store, func(o *application.Options) {
		o.Location = zurich
		o.Now = clock.NowFunc()
	})

	snap, err := repo.CheckIn(context.Background(), " Aniko ", " Fenster offen ")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	record, ok := snap.Document.Attendance[clock.InZone(zurich).Today()]
	if !ok {
		t.Fatalf("expected check-in on the Zurich date, got %v", snap.Document.Attendance)
	}
	if record != (domain.AttendanceRecord{StaffMember: "Aniko", Note: "Fenster offen"}) {
		t.Fatalf("expected trimmed record, got %+v", record)
	}
}

func TestUpdateAttendanceNote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := testfixtures.NewRecordingStore(seededStore(t, testfixtures.SampleDocument()))
	repo := newRepository(t, store)

	if _, err := repo.UpdateAttendanceNote(ctx, "2025-07-01", "nichts"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.Writes() != 0 {
		t.Fatal("expected no write for missing record")
	}

	snap, err := repo.UpdateAttendanceNote(ctx, "2025-06-11", "Licht defekt")
	if err != nil {
		t.Fatalf("update note: %v", err)
	}
	if got := snap.Document.Attendance["2025-06-11"]; got.StaffMember != "Sarah" || got.Note != "Licht defekt" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestDeleteAttendance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := testfixtures.NewRecordingStore(seededStore(t, testfixtures.SampleDocument()))
	repo := newRepository(t, store)

	snap, err := repo.DeleteAttendance(ctx, "2025-06-10")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := snap.Document.Attendance["2025-06-10"]; ok {
		t.Fatal("expected record to be removed")
	}

	again, err := repo.DeleteAttendance(ctx, "2025-06-10")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if again.Version != snap.Version || store.Writes() != 1 {
		t.Fatalf("expected repeat delete to be a no-op, writes=%d", store.Writes())
	}
}

func TestSetWeeklyResponsibleAndPlanning(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := persistence.NewMemoryStore("kontrollen.json")
	repo := newRepository(t, store)

	if _, err := repo.SetWeeklyResponsible(ctx, "2026-W01", "Susanne"); err != nil {
		t.Fatalf("future week should be allowed: %v", err)
	}

	snap, err := repo.UpsertPlanningEntry(ctx, "2025-06-12", domain.PlanningEntry{
		OpeningSlots: map[domain.Slot][]string{
			domain.SlotMorning:   {"Debora", " Janine "},
			domain.SlotAfternoon: {"Debora"},
		},
		ClassVisit: " 3b ",
	})
	if err != nil {
		t.Fatalf("planning: %v", err)
	}

	entry := snap.Document.Planning["2025-06-12"]
	if got := entry.Staff(domain.SlotMorning); len(got) != 2 || got[1] != "Janine" {
		t.Fatalf("unexpected morning staff %v", got)
	}
	if entry.ClassVisit != "3b" {
		t.Fatalf("expected trimmed class visit, got %q", entry.ClassVisit)
	}
	if snap.Document.WeeklyResponsibility["2026-W01"] != "Susanne" {
		t.Fatal("expected earlier weekly assignment to be kept")
	}
}

func TestConvenienceOperationRebasesOverConcurrentWriter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := seededStore(t, testfixtures.SampleDocument())
	store := testfixtures.NewRecordingStore(mem)
	repo := newRepository(t, store)

	store.BeforeWrite = func(call int, _ []byte, _ persistence.Version) error {
		if call == 1 {
			writeBehind(t, mem, func(doc *domain.Document) {
				doc.WeeklyResponsibility["2025-W25"] = "Debora"
			})
		}
		return nil
	}

	if _, err := repo.UpsertAttendance(ctx, "2025-06-12", domain.AttendanceRecord{StaffMember: "Janine"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	final := storedDocument(t, mem)
	if final.WeeklyResponsibility["2025-W25"] != "Debora" || final.Attendance["2025-06-12"].StaffMember != "Janine" {
		t.Fatalf("expected both changes, got %+v", final)
	}
}

func TestConvenienceOperationSameDayConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := seededStore(t, testfixtures.SampleDocument())
	store := testfixtures.NewRecordingStore(mem)
	repo := newRepository(t, store)

	store.BeforeWrite = func(call int, _ []byte, _ persistence.Version) error {
		if call == 1 {
			writeBehind(t, mem, func(doc *domain.Document) {
				doc.Attendance["2025-06-12"] = domain.AttendanceRecord{StaffMember: "Sarah"}
			})
		}
		return nil
	}

	_, err := repo.UpsertAttendance(ctx, "2025-06-12", domain.AttendanceRecord{StaffMember: "Janine"})
	if !errors.Is(err, application.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
	if got := storedDocument(t, mem).Attendance["2025-06-12"].StaffMember; got != "Sarah" {
		t.Fatalf("expected concurrent writer's value, got %q", got)
	}
}

func TestRepositoryAccessors(t *testing.T) {
	t.Parallel()
	repo := newRepository(t, persistence.NewMemoryStore("kontrollen.json"))
	if repo.Today() != "2025-06-12" {
		t.Fatalf("expected reference date, got %s", repo.Today())
	}
	if repo.Roster().Len() != len(domain.DefaultRosterNames) {
		t.Fatalf("unexpected roster size %d", repo.Roster().Len())
	}
	if _, err := application.NewStateRepository(nil, application.Options{}); err == nil {
		t.Fatal("expected error for nil store")
	}
}
