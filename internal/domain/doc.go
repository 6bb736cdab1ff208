// Package domain holds the shared library document and its value types.
//
// The document is persisted as a single JSON object with three sections:
//
//	{
//	  "kontrollen":          {"2025-06-10": {"mitarbeiter": "Aniko", "bemerkung": "ok"}},
//	  "wochenverantwortung": {"2025-W24": "Aniko"},
//	  "planung":             {"2025-06-12": {"oeffnungszeiten": {"Morgen": ["Sarah"]}, "klassenbesuch": "3a"}}
//	}
//
// Types in this package carry no behavior beyond copying, comparison, encoding
// and validation. Loading and saving live in the application package.
package domain
