package schema

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// Steps returns the migration chain in execution order.
func Steps() []Step {
	return []Step{
		{Name: "lift-dated-keys", Applies: hasDatedKeys, Apply: liftDatedKeys},
		{Name: "fill-missing-sections", Applies: missingSections, Apply: fillMissingSections},
		{Name: "drop-unknown-keys", Applies: hasUnknownKeys, Apply: dropUnknownKeys},
		{Name: "normalize-opening-slots", Applies: hasLegacyOpeningSlots, Apply: normalizeOpeningSlots},
	}
}

var emptyObject = json.RawMessage(`{}`)

func isSection(key string) bool {
	return slices.Contains(domain.Sections(), domain.Section(key))
}

func hasDatedKeys(raw Raw) bool {
	if raw.Shape() == ShapeCanonical {
		return false
	}
	for key := range raw {
		if domain.IsDate(key) {
			return true
		}
	}
	return false
}

// liftDatedKeys moves top-level date keys under kontrollen. An entry already
// present under kontrollen for the same date wins over the loose key.
func liftDatedKeys(raw Raw, report *Report) Raw {
	attendance := map[string]json.RawMessage{}
	if existing, ok := raw[string(domain.SectionAttendance)]; ok {
		if err := json.Unmarshal(existing, &attendance); err != nil || attendance == nil {
			report.drop(string(domain.SectionAttendance))
			attendance = map[string]json.RawMessage{}
		}
	}
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if !domain.IsDate(key) {
			continue
		}
		if _, taken := attendance[key]; !taken {
			attendance[key] = raw[key]
		}
		delete(raw, key)
	}
	encoded, err := json.Marshal(attendance)
	if err != nil {
		// Values are already valid JSON; marshal cannot fail here.
		encoded = emptyObject
	}
	raw[string(domain.SectionAttendance)] = encoded
	return raw
}

func missingSections(raw Raw) bool {
	return raw.Shape() != ShapeCanonical
}

func fillMissingSections(raw Raw, _ *Report) Raw {
	for _, section := range domain.Sections() {
		if _, ok := raw[string(section)]; !ok {
			raw[string(section)] = emptyObject
		}
	}
	return raw
}

func hasUnknownKeys(raw Raw) bool {
	for key := range raw {
		if !isSection(key) {
			return true
		}
	}
	return false
}

func dropUnknownKeys(raw Raw, report *Report) Raw {
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if !isSection(key) {
			report.drop(key)
			delete(raw, key)
		}
	}
	return raw
}

// legacyPlanning reads planung leniently so legacy slot shapes can be detected.
func legacyPlanning(raw Raw) map[string]map[string]json.RawMessage {
	var planning map[string]map[string]json.RawMessage
	data, ok := raw[string(domain.SectionPlanning)]
	if !ok || json.Unmarshal(data, &planning) != nil {
		return nil
	}
	return planning
}

func isLegacySlots(value json.RawMessage) bool {
	trimmed := bytes.TrimSpace(value)
	return len(trimmed) > 0 && (trimmed[0] == '[' || bytes.Equal(trimmed, []byte("null")))
}

func hasLegacyOpeningSlots(raw Raw) bool {
	for _, entry := range legacyPlanning(raw) {
		if slots, ok := entry["oeffnungszeiten"]; ok && isLegacySlots(slots) {
			return true
		}
	}
	return false
}

// normalizeOpeningSlots converts the older planning layout, where
// oeffnungszeiten was a flat list of names or null, into the slot mapping. A
// flat list carried no slot, so it is filed under the morning slot.
func normalizeOpeningSlots(raw Raw, report *Report) Raw {
	planning := legacyPlanning(raw)
	if planning == nil {
		return raw
	}
	for date, entry := range planning {
		slots, ok := entry["oeffnungszeiten"]
		if !ok || !isLegacySlots(slots) {
			continue
		}
		var staff []string
		if err := json.Unmarshal(slots, &staff); err != nil {
			report.drop(string(domain.SectionPlanning) + "." + date + ".oeffnungszeiten")
			entry["oeffnungszeiten"] = emptyObject
			continue
		}
		mapped := map[domain.Slot][]string{}
		if len(staff) > 0 {
			mapped[domain.SlotMorning] = staff
		}
		encoded, err := json.Marshal(mapped)
		if err != nil {
			encoded = emptyObject
		}
		entry["oeffnungszeiten"] = encoded
	}
	encoded, err := json.Marshal(planning)
	if err != nil {
		return raw
	}
	raw[string(domain.SectionPlanning)] = encoded
	return raw
}
