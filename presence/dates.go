/*
dates.go - Calendar date utilities

PURPOSE:
  All date handling in this system is done on YYYY-MM-DD strings. The format
  is fixed-width and zero-padded, so lexicographic comparison IS chronological
  comparison: "2026-02-03" < "2026-02-10" holds as strings. The same applies
  to HH:mm times. These helpers validate formats, enumerate ranges and answer
  weekend/today questions; they never touch storage.

TIMEZONE:
  "Today" is the UTC calendar date. No other timezone handling exists
  anywhere in the system.
*/
package presence

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the canonical date format used across every interface.
const DateLayout = "2006-01-02"

var (
	dateRE  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRE  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	monthRE = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// ValidDate reports whether s matches YYYY-MM-DD and denotes a real
// calendar date (rejects 2026-02-30 and friends).
func ValidDate(s string) bool {
	if !dateRE.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidTime reports whether s is a 24-hour HH:mm string.
func ValidTime(s string) bool {
	return timeRE.MatchString(s)
}

// Today returns the current UTC date as YYYY-MM-DD.
func Today() string {
	return time.Now().UTC().Format(DateLayout)
}

// AddDays returns the date n days after date. date must be valid.
func AddDays(date string, n int) string {
	t, _ := time.Parse(DateLayout, date)
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func IsWeekend(date string) bool {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsPast reports whether date is strictly before today.
func IsPast(date, today string) bool {
	return date < today
}

// EnumerateRange returns every date in [start, end] inclusive, in order.
// Returns nil if end < start.
func EnumerateRange(start, end string) []string {
	if end < start {
		return nil
	}
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates
}

// MonthRange expands a YYYY-MM month into its first and last date.
func MonthRange(yearMonth string) (start, end string, err error) {
	if !monthRE.MatchString(yearMonth) {
		return "", "", fmt.Errorf("month must be in YYYY-MM format, got %q", yearMonth)
	}
	first, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q: %w", yearMonth, err)
	}
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout), nil
}

// MinMax returns the lexicographic minimum and maximum of dates.
// dates must be non-empty.
func MinMax(dates []string) (min, max string) {
	min, max = dates[0], dates[0]
	for _, d := range dates[1:] {
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}
