/*
stats.go - Attendance summaries

PURPOSE:
  Per-user presence counts and office-attendance rate over a date range.
  Consumed by the stats endpoint; replaces nothing in the matcher path.
  Counting runs through the resolver, so a leave entry on a holiday counts
  as a holiday here exactly as it renders in the calendar.
*/
package presence

import (
	"context"

	"github.com/shopspring/decimal"
)

// RangeStats summarises one user's presence over a range.
type RangeStats struct {
	UserID    string
	StartDate string
	EndDate   string

	OfficeDays  int
	LeaveDays   int
	WFHDays     int
	HolidayDays int
	WeekendDays int

	// WorkingDays is the number of non-weekend, non-holiday dates in range.
	WorkingDays int

	// OfficeRate is OfficeDays / WorkingDays as a percentage, one decimal
	// place. Zero when the range has no working days.
	OfficeRate decimal.Decimal
}

// Statistician computes attendance summaries.
type Statistician struct {
	entries  EntryStore
	holidays HolidayStore
}

// NewStatistician creates a statistician over the given stores.
func NewStatistician(entries EntryStore, holidays HolidayStore) *Statistician {
	return &Statistician{entries: entries, holidays: holidays}
}

// Summarize resolves every date in [start, end] for the user and counts by
// effective status.
func (s *Statistician) Summarize(ctx context.Context, userID, start, end string) (*RangeStats, error) {
	if !ValidDate(start) || !ValidDate(end) {
		return nil, Validationf("startDate", "startDate and endDate must be in YYYY-MM-DD format")
	}
	if end < start {
		return nil, Validationf("endDate", "endDate must be >= startDate")
	}

	entries, err := s.entries.FindRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	holidays, err := s.holidays.FindInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	entryMap := EntriesByDate(entries)
	holidaySet := NewHolidaySet(holidays)

	stats := &RangeStats{UserID: userID, StartDate: start, EndDate: end}
	for _, date := range EnumerateRange(start, end) {
		switch ResolveFromMap(date, holidaySet, entryMap) {
		case EffectiveOffice:
			stats.OfficeDays++
		case EffectiveLeave:
			stats.LeaveDays++
		case EffectiveWFH:
			stats.WFHDays++
		case EffectiveHoliday:
			stats.HolidayDays++
		case EffectiveWeekend:
			stats.WeekendDays++
		}
	}
	stats.WorkingDays = stats.OfficeDays + stats.LeaveDays + stats.WFHDays

	if stats.WorkingDays > 0 {
		stats.OfficeRate = decimal.NewFromInt(int64(stats.OfficeDays)).
			Div(decimal.NewFromInt(int64(stats.WorkingDays))).
			Mul(decimal.NewFromInt(100)).
			Round(1)
	}
	return stats, nil
}
