package schema

import (
	"errors"
	"slices"
	"testing"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

func mustParse(t *testing.T, data string) Raw {
	t.Helper()
	raw, err := ParseRaw([]byte(data))
	if err != nil {
		t.Fatalf("ParseRaw failed: %v", err)
	}
	return raw
}

func TestMigrate_LegacyFlatDocument(t *testing.T) {
	t.Parallel()

	raw := mustParse(t, `{
		"2025-06-10": {"mitarbeiter": "Aniko", "bemerkung": "ok"},
		"wochenverantwortung": {"2025-W24": "Aniko"},
		"unrelatedKey": 5
	}`)

	doc, report := Migrate(raw)

	want := map[string]domain.AttendanceRecord{"2025-06-10": {StaffMember: "Aniko", Note: "ok"}}
	if len(doc.Attendance) != 1 || doc.Attendance["2025-06-10"] != want["2025-06-10"] {
		t.Fatalf("expected attendance %v, got %v", want, doc.Attendance)
	}
	if len(doc.WeeklyResponsibility) != 1 || doc.WeeklyResponsibility["2025-W24"] != "Aniko" {
		t.Fatalf("expected weekly responsibility preserved, got %v", doc.WeeklyResponsibility)
	}
	if doc.Planning == nil || len(doc.Planning) != 0 {
		t.Fatalf("expected empty planning section, got %v", doc.Planning)
	}
	if !slices.Contains(report.Dropped, "unrelatedKey") {
		t.Fatalf("expected unrelatedKey to be reported as dropped, got %v", report.Dropped)
	}
	if report.Shape != ShapePartial {
		t.Fatalf("expected partial shape, got %s", report.Shape)
	}
}

func TestMigrate_OldestShape(t *testing.T) {
	t.Parallel()

	raw := mustParse(t, `{
		"2025-06-10": {"mitarbeiter": "Aniko", "bemerkung": ""},
		"2025-06-11": {"mitarbeiter": "Sarah", "bemerkung": "Licht brannte"},
		"2025-6-12": {"mitarbeiter": "Janine", "bemerkung": ""}
	}`)

	doc, report := Migrate(raw)
	if report.Shape != ShapeFlat {
		t.Fatalf("expected flat shape, got %s", report.Shape)
	}
	if len(doc.Attendance) != 2 {
		t.Fatalf("expected two attendance records, got %v", doc.Attendance)
	}
	if _, ok := doc.Attendance["2025-6-12"]; ok {
		t.Fatalf("expected malformed date key to be dropped")
	}
	if !slices.Contains(report.Dropped, "2025-6-12") {
		t.Fatalf("expected malformed key in report, got %v", report.Dropped)
	}
	wantSteps := []string{"lift-dated-keys", "fill-missing-sections", "drop-unknown-keys"}
	if !slices.Equal(report.Applied, wantSteps) {
		t.Fatalf("expected steps %v, got %v", wantSteps, report.Applied)
	}
}

func TestMigrate_ExistingSectionWins(t *testing.T) {
	t.Parallel()

	raw := mustParse(t, `{
		"kontrollen": {"2025-06-10": {"mitarbeiter": "Sarah", "bemerkung": "neu"}},
		"2025-06-10": {"mitarbeiter": "Aniko", "bemerkung": "alt"},
		"2025-06-09": {"mitarbeiter": "Debora", "bemerkung": ""}
	}`)

	doc, _ := Migrate(raw)
	if got := doc.Attendance["2025-06-10"].StaffMember; got != "Sarah" {
		t.Fatalf("expected kontrollen entry to win, got %q", got)
	}
	if got := doc.Attendance["2025-06-09"].StaffMember; got != "Debora" {
		t.Fatalf("expected loose date key to be lifted, got %q", got)
	}
}

func TestMigrate_LegacyOpeningSlots(t *testing.T) {
	t.Parallel()

	raw := mustParse(t, `{
		"kontrollen": {},
		"wochenverantwortung": {},
		"planung": {
			"2025-06-12": {"oeffnungszeiten": ["Sarah", "Debora"], "klassenbesuch": "3a", "bemerkung": null},
			"2025-06-13": {"oeffnungszeiten": null, "klassenbesuch": null, "bemerkung": "Fest"},
			"2025-06-14": {"oeffnungszeiten": {"Abend": ["Janine", ""], "Mittag": ["Aniko"]}}
		}
	}`)

	doc, report := Migrate(raw)
	if !slices.Contains(report.Applied, "normalize-opening-slots") {
		t.Fatalf("expected slot normalization to run, got %v", report.Applied)
	}

	first := doc.Planning["2025-06-12"]
	if got := first.Staff(domain.SlotMorning); !slices.Equal(got, []string{"Sarah", "Debora"}) {
		t.Fatalf("expected flat list filed under Morgen, got %v", got)
	}
	if first.ClassVisit != "3a" || first.Note != "" {
		t.Fatalf("unexpected optional fields: %+v", first)
	}

	second := doc.Planning["2025-06-13"]
	if len(second.OpeningSlots) != 0 || second.Note != "Fest" {
		t.Fatalf("expected null slots to become empty, got %+v", second)
	}

	third := doc.Planning["2025-06-14"]
	if got := third.Staff(domain.SlotEvening); !slices.Equal(got, []string{"Janine"}) {
		t.Fatalf("expected blank names removed, got %v", got)
	}
	if _, ok := third.OpeningSlots["Mittag"]; ok {
		t.Fatalf("expected unknown slot to be dropped")
	}
	if !slices.Contains(report.Dropped, "planung.2025-06-14.Mittag") {
		t.Fatalf("expected unknown slot in report, got %v", report.Dropped)
	}
}

func TestMigrate_DropsMalformedEntries(t *testing.T) {
	t.Parallel()

	raw := mustParse(t, `{
		"kontrollen": {"2025-06-10": "Aniko", "2025-06-11": {"mitarbeiter": ""}, "2025-06-12": {"mitarbeiter": "Sarah"}},
		"wochenverantwortung": {"2025-W99": "Aniko", "2025-W24": 3, "2025-W25": "Sarah"},
		"planung": []
	}`)

	doc, report := Migrate(raw)
	if len(doc.Attendance) != 1 || doc.Attendance["2025-06-12"].StaffMember != "Sarah" {
		t.Fatalf("expected only the well-formed record, got %v", doc.Attendance)
	}
	if len(doc.WeeklyResponsibility) != 1 || doc.WeeklyResponsibility["2025-W25"] != "Sarah" {
		t.Fatalf("expected only the well-formed week, got %v", doc.WeeklyResponsibility)
	}
	if doc.Planning == nil || len(doc.Planning) != 0 {
		t.Fatalf("expected non-object planning section to be replaced, got %v", doc.Planning)
	}
	for _, path := range []string{"kontrollen.2025-06-10", "kontrollen.2025-06-11", "wochenverantwortung.2025-W99", "wochenverantwortung.2025-W24", "planung"} {
		if !slices.Contains(report.Dropped, path) {
			t.Fatalf("expected %s in dropped list, got %v", path, report.Dropped)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"flat":    `{"2025-06-10": {"mitarbeiter": "Aniko", "bemerkung": "ok"}, "junk": true}`,
		"partial": `{"2025-06-10": {"mitarbeiter": "Aniko", "bemerkung": "ok"}, "wochenverantwortung": {"2025-W24": "Aniko"}}`,
		"legacy":  `{"kontrollen": {}, "wochenverantwortung": {}, "planung": {"2025-06-12": {"oeffnungszeiten": ["Sarah"]}}}`,
		"empty":   ``,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			first, _ := Migrate(mustParse(t, input))
			encoded, err := domain.Encode(first)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}

			second, report, err := MigrateBytes(encoded)
			if err != nil {
				t.Fatalf("MigrateBytes failed: %v", err)
			}
			if report.Changed() {
				t.Fatalf("expected second migration to be a no-op, got %+v", report)
			}
			if report.Shape != ShapeCanonical {
				t.Fatalf("expected canonical shape after migration, got %s", report.Shape)
			}
			if !second.Equal(first) {
				t.Fatalf("expected identical documents\nfirst  %+v\nsecond %+v", first, second)
			}

			reencoded, err := domain.Encode(second)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if string(reencoded) != string(encoded) {
				t.Fatalf("expected byte-identical re-serialization\n%s\n%s", encoded, reencoded)
			}
		})
	}
}

func TestMigrate_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	raw := mustParse(t, `{"2025-06-10": {"mitarbeiter": "Aniko", "bemerkung": "ok"}}`)
	Migrate(raw)
	if _, ok := raw["2025-06-10"]; !ok {
		t.Fatalf("expected input raw document to be left untouched")
	}
	if _, ok := raw["kontrollen"]; ok {
		t.Fatalf("expected no section to be added to the input")
	}
}

func TestParseRaw(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "  \n", "null", "{}"} {
		raw, err := ParseRaw([]byte(input))
		if err != nil {
			t.Fatalf("expected %q to parse, got %v", input, err)
		}
		if len(raw) != 0 {
			t.Fatalf("expected empty raw document for %q, got %v", input, raw)
		}
	}

	for _, input := range []string{"[1,2]", "\"text\"", "{broken"} {
		if _, err := ParseRaw([]byte(input)); !errors.Is(err, ErrNotObject) {
			t.Fatalf("expected ErrNotObject for %q, got %v", input, err)
		}
	}
}
