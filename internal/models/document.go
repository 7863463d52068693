// Package models defines the domain types for Docuflow.
package models

import "time"

// DateLayout is the persisted timestamp format: ISO-8601, UTC, millisecond precision.
const DateLayout = "2006-01-02T15:04:05.000Z"

// Document is a metadata record for a user file. No file content is stored.
//
// Field order is significant: it is the order in which records are persisted.
type Document struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
	Type       string `json:"type"` // MIME-like hint, only used for icon selection
	Size       string `json:"size"` // display string, not a measurement
	Date       string `json:"date"`
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
