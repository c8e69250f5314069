/*
team.go - Team calendar aggregation

PURPOSE:
  Builds the month-wide (user x date) view consumed by the team calendar UI.
  Composes the resolver over all active users so every cell shows the same
  effective status the matcher would see. A sibling consumer of the store,
  not a dependency of the matcher.
*/
package presence

import "context"

// DayCell is one user's resolved view of one date.
type DayCell struct {
	Status    EffectiveStatus
	Note      string
	StartTime string
	EndTime   string
}

// MemberCalendar is one user's row in the team view.
type MemberCalendar struct {
	User User
	// Days maps every date of the month to its resolved cell.
	Days map[string]DayCell
}

// TeamMonth is the aggregated month view.
type TeamMonth struct {
	Month     string // YYYY-MM
	StartDate string
	EndDate   string
	Today     string
	Holidays  []Holiday
	Team      []MemberCalendar
}

// Aggregator builds team month views.
type Aggregator struct {
	users    UserDirectory
	entries  EntryStore
	holidays HolidayStore

	now func() string
}

// NewAggregator creates an aggregator over the given stores.
func NewAggregator(users UserDirectory, entries EntryStore, holidays HolidayStore) *Aggregator {
	return &Aggregator{users: users, entries: entries, holidays: holidays, now: Today}
}

// WithNow overrides the aggregator's clock. Test hook.
func (a *Aggregator) WithNow(now func() string) *Aggregator {
	a.now = now
	return a
}

// Month resolves every (active user, date) cell for a YYYY-MM month.
func (a *Aggregator) Month(ctx context.Context, yearMonth string) (*TeamMonth, error) {
	start, end, err := MonthRange(yearMonth)
	if err != nil {
		return nil, Validationf("month", "%v", err)
	}

	users, err := a.users.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	entries, err := a.entries.FindForUsers(ctx, ids, start, end)
	if err != nil {
		return nil, err
	}
	holidays, err := a.holidays.FindInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	holidaySet := NewHolidaySet(holidays)

	// Group entries by user, then by date.
	byUser := make(map[string]map[string]Entry, len(users))
	for _, e := range entries {
		if byUser[e.UserID] == nil {
			byUser[e.UserID] = make(map[string]Entry)
		}
		byUser[e.UserID][e.Date] = e
	}

	dates := EnumerateRange(start, end)
	team := make([]MemberCalendar, 0, len(users))
	for _, u := range users {
		userEntries := byUser[u.ID]
		days := make(map[string]DayCell, len(dates))
		for _, date := range dates {
			cell := DayCell{Status: ResolveFromMap(date, holidaySet, userEntries)}
			// The raw entry's annotations stay visible only when the entry
			// itself decides the effective status.
			if e, ok := userEntries[date]; ok && (cell.Status == EffectiveOffice || cell.Status == EffectiveLeave) {
				cell.Note = e.Note
				cell.StartTime = e.StartTime
				cell.EndTime = e.EndTime
			}
			days[date] = cell
		}
		team = append(team, MemberCalendar{User: u, Days: days})
	}

	return &TeamMonth{
		Month:     yearMonth,
		StartDate: start,
		EndDate:   end,
		Today:     a.now(),
		Holidays:  holidays,
		Team:      team,
	}, nil
}
