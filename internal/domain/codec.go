package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes the document as indented UTF-8 JSON. Sections, dates and
// slots are emitted in sorted order so identical documents encode to identical
// bytes.
func Encode(doc Document) ([]byte, error) {
	norm := doc.Clone()
	for date, entry := range norm.Planning {
		for slot, staff := range entry.OpeningSlots {
			if staff == nil {
				entry.OpeningSlots[slot] = []string{}
			}
		}
		norm.Planning[date] = entry
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(norm); err != nil {
		return nil, fmt.Errorf("domain: encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses canonical document JSON. Absent sections decode as empty
// mappings. Legacy shapes must go through the schema package instead.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("domain: decode document: %w", err)
	}
	return doc.Clone(), nil
}
