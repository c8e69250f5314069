/*
validate.go - Attendance write validation

PURPOSE:
  Shared validation for EntryStore implementations. Every store validates
  through Normalize before touching storage, so the invariants (real date,
  known status, note length, paired and ordered time window) hold no matter
  which backend is in use.

SANITISATION:
  Notes are HTML/script tag-stripped before storage, mirroring what the
  calendar UI expects. This is a plain tag strip, not an HTML parser.
*/
package presence

import (
	"regexp"
	"strings"
)

// MaxNoteLength is the note limit, enforced before sanitisation trims tags.
const MaxNoteLength = 500

var tagRE = regexp.MustCompile(`<[^>]*>`)

// SanitizeText strips HTML tags and trims whitespace.
func SanitizeText(s string) string {
	return strings.TrimSpace(tagRE.ReplaceAllString(s, ""))
}

// normalized is the validated, sanitised form of an upsert. Empty strings
// mean the field is not stored.
type normalized struct {
	UserID    string
	Date      string
	Status    Status
	Note      string
	StartTime string
	EndTime   string
}

// Normalize validates p and collapses the three-state pointer fields into
// their stored form. Returns a ValidationError on the first problem found.
func (p UpsertParams) Normalize() (normalized, error) {
	var n normalized

	if p.UserID == "" {
		return n, Validationf("userId", "user ID is required")
	}
	if !ValidDate(p.Date) {
		return n, Validationf("date", "date must be in YYYY-MM-DD format")
	}
	if !p.Status.Valid() {
		return n, Validationf("status", `status must be "office" or "leave"`)
	}

	n.UserID = p.UserID
	n.Date = p.Date
	n.Status = p.Status

	if p.Note != nil {
		if len(*p.Note) > MaxNoteLength {
			return n, Validationf("note", "note cannot exceed %d characters", MaxNoteLength)
		}
		n.Note = SanitizeText(*p.Note)
	}

	start, end := "", ""
	if p.StartTime != nil {
		start = strings.TrimSpace(*p.StartTime)
	}
	if p.EndTime != nil {
		end = strings.TrimSpace(*p.EndTime)
	}
	if start == "" && end == "" {
		return n, nil
	}
	if start == "" || end == "" {
		return n, Validationf("startTime", "both startTime and endTime must be provided together")
	}
	if !ValidTime(start) {
		return n, Validationf("startTime", "startTime must be in HH:mm 24-hour format")
	}
	if !ValidTime(end) {
		return n, Validationf("endTime", "endTime must be in HH:mm 24-hour format")
	}
	// Fixed-width zero-padded format, so string order is time order.
	if end <= start {
		return n, Validationf("endTime", "endTime must be after startTime")
	}
	n.StartTime = start
	n.EndTime = end
	return n, nil
}
