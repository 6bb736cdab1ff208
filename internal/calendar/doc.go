// Package calendar derives read-only views from the document: inspection
// coverage over the holiday period and calendar events from planning entries.
package calendar
