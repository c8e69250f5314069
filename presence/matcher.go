/*
matcher.go - Schedule-alignment matcher

PURPOSE:
  "Match my favorite's schedule": given a source user and a date range,
  classify each candidate date, and on confirmation rewrite the caller's
  entries to match the favorite's office days.

TWO-PHASE PROTOCOL:
  Preview: read-only, safe to call repeatedly. Enumerates the range,
  restricts to dates where the favorite's effective status is office
  (anything else is omitted entirely, not classified), classifies each
  candidate, and reports the newest updatedAt among the favorite's entries
  so the caller can notice the schedule moving under them. Advisory only.

  Apply: a coarse optimistic-concurrency check followed by a strictly
  sequential per-date loop. The staleness gate rejects the ENTIRE batch with
  a conflict if any requested date no longer has an office record for the
  favorite - nothing is written. Once the gate passes, each date succeeds or
  fails on its own; a write failure on one date never aborts its siblings,
  and there is no rollback. Re-applying an already-office date is a success
  ("Already matching"), so the whole operation is idempotent per date and a
  caller can re-run apply on just the failed dates.

CLASSIFICATION PRECEDENCE (first match wins):
  weekend > holiday > locked > already_matching > conflict_leave > will_be_added

  Only conflict_leave can be overridden, and only when the caller opts in.

CONCURRENCY:
  The three reads of each phase have no ordering dependency and are issued
  concurrently, then joined. The apply loop is sequential so results keep
  input order. No locking beyond the store's (user, date) uniqueness
  constraint; a favorite changing status after the gate but before the
  caller reads the response is not detected.
*/
package presence

import (
	"context"
	"sync"
	"time"
)

// Classification tags a candidate date in a preview.
type Classification string

const (
	ClassWillBeAdded     Classification = "will_be_added"
	ClassConflictLeave   Classification = "conflict_leave"
	ClassLocked          Classification = "locked"
	ClassAlreadyMatching Classification = "already_matching"
	ClassHoliday         Classification = "holiday"
	ClassWeekend         Classification = "weekend"
)

// Per-date apply outcome messages. Part of the API surface.
const (
	MsgInvalidDate   = "Invalid date format"
	MsgWeekend       = "Weekend"
	MsgHoliday       = "Holiday"
	MsgOutsideWindow = "Outside editing window"
	MsgAlreadyMatch  = "Already matching"
	MsgLeaveConflict = "Leave conflict — override not enabled"
	MsgApplyFailed   = "Failed to apply"
)

// PreviewDate is one classified candidate date.
type PreviewDate struct {
	Date           string
	Classification Classification
	FavoriteStatus EffectiveStatus
	UserStatus     EffectiveStatus
	CanOverride    bool
	Reason         string
}

// PreviewResult is the matcher's read-only output.
type PreviewResult struct {
	FavoriteUser User
	Dates        []PreviewDate
	// LastUpdated is the newest updatedAt among the favorite's entries in
	// range, nil when the favorite has none. Advisory staleness signal.
	LastUpdated *time.Time
}

// DateResult is one per-date apply outcome.
type DateResult struct {
	Date    string
	Success bool
	Message string
}

// ApplyResult aggregates an apply batch.
type ApplyResult struct {
	Processed int
	Skipped   int
	Results   []DateResult
}

// Matcher implements schedule alignment over the storage interfaces.
type Matcher struct {
	users    UserDirectory
	entries  EntryStore
	holidays HolidayStore

	// now returns today's date; overridable for tests.
	now func() string
}

// NewMatcher creates a matcher over the given stores.
func NewMatcher(users UserDirectory, entries EntryStore, holidays HolidayStore) *Matcher {
	return &Matcher{users: users, entries: entries, holidays: holidays, now: Today}
}

// WithNow overrides the matcher's clock. Test hook.
func (m *Matcher) WithNow(now func() string) *Matcher {
	m.now = now
	return m
}

// =============================================================================
// PREVIEW
// =============================================================================

// Preview classifies every candidate date in [startDate, endDate] for
// aligning actingUserID's schedule with favoriteUserID's office days.
// Never mutates state.
func (m *Matcher) Preview(ctx context.Context, actingUserID string, actingRole Role, favoriteUserID, startDate, endDate string) (*PreviewResult, error) {
	if favoriteUserID == "" {
		return nil, Validationf("favoriteUserId", "favoriteUserId is required")
	}
	if !ValidDate(startDate) || !ValidDate(endDate) {
		return nil, Validationf("startDate", "startDate and endDate must be in YYYY-MM-DD format")
	}
	if endDate < startDate {
		return nil, Validationf("endDate", "endDate must be >= startDate")
	}

	favorite, err := m.lookupActiveUser(ctx, favoriteUserID)
	if err != nil {
		return nil, err
	}

	favEntries, userEntries, holidays, err := m.fetchFacts(ctx,
		func(ctx context.Context) ([]Entry, error) {
			return m.entries.FindRange(ctx, favoriteUserID, startDate, endDate)
		},
		func(ctx context.Context) ([]Entry, error) {
			return m.entries.FindRange(ctx, actingUserID, startDate, endDate)
		},
		func(ctx context.Context) ([]Holiday, error) {
			return m.holidays.FindInRange(ctx, startDate, endDate)
		})
	if err != nil {
		return nil, err
	}

	favMap := EntriesByDate(favEntries)
	userMap := EntriesByDate(userEntries)
	holidaySet := NewHolidaySet(holidays)
	today := m.now()

	preview := []PreviewDate{}
	for _, date := range EnumerateRange(startDate, endDate) {
		// Candidacy: the favorite is effectively in the office. Weekends and
		// holidays force a different effective status regardless of any raw
		// entry, so such dates never appear in the output at all.
		if ResolveFromMap(date, holidaySet, favMap) != EffectiveOffice {
			continue
		}
		preview = append(preview, m.classify(date, actingRole, today, holidaySet, favMap, userMap))
	}

	return &PreviewResult{
		FavoriteUser: *favorite,
		Dates:        preview,
		LastUpdated:  latestUpdate(favEntries),
	}, nil
}

// classify applies the precedence rules to one candidate date.
func (m *Matcher) classify(date string, actingRole Role, today string, holidaySet HolidaySet, favMap, userMap map[string]Entry) PreviewDate {
	pd := PreviewDate{
		Date:           date,
		FavoriteStatus: ResolveFromMap(date, holidaySet, favMap),
		UserStatus:     ResolveFromMap(date, holidaySet, userMap),
	}

	switch {
	case IsWeekend(date):
		pd.Classification = ClassWeekend
		pd.Reason = "Weekend"
	case holidaySet.Contains(date):
		pd.Classification = ClassHoliday
		pd.Reason = "Public holiday"
	case !IsEditable(date, actingRole, today):
		pd.Classification = ClassLocked
		pd.Reason = "Outside editing window"
	case pd.UserStatus == EffectiveOffice:
		pd.Classification = ClassAlreadyMatching
	case pd.UserStatus == EffectiveLeave:
		pd.Classification = ClassConflictLeave
		pd.CanOverride = true
		pd.Reason = "You have leave on this day"
	default:
		pd.Classification = ClassWillBeAdded
	}
	return pd
}

// =============================================================================
// APPLY
// =============================================================================

// Apply rewrites the acting user's entries to office on the requested dates.
// Returns ErrScheduleChanged (whole batch, nothing written) if the favorite
// no longer has an office record on any requested date.
func (m *Matcher) Apply(ctx context.Context, actingUserID string, actingRole Role, favoriteUserID string, dates []string, overrideLeave bool) (*ApplyResult, error) {
	if favoriteUserID == "" {
		return nil, Validationf("favoriteUserId", "favoriteUserId is required")
	}
	if len(dates) == 0 {
		return nil, Validationf("dates", "dates array is required")
	}

	if _, err := m.lookupActiveUser(ctx, favoriteUserID); err != nil {
		return nil, err
	}

	// Phase 1: re-fetch current facts for exactly the requested dates.
	minDate, maxDate := MinMax(dates)
	favEntries, userEntries, holidays, err := m.fetchFacts(ctx,
		func(ctx context.Context) ([]Entry, error) {
			return m.entries.FindDates(ctx, favoriteUserID, dates)
		},
		func(ctx context.Context) ([]Entry, error) {
			return m.entries.FindDates(ctx, actingUserID, dates)
		},
		func(ctx context.Context) ([]Holiday, error) {
			return m.holidays.FindInRange(ctx, minDate, maxDate)
		})
	if err != nil {
		return nil, err
	}

	favMap := EntriesByDate(favEntries)
	userMap := EntriesByDate(userEntries)
	holidaySet := NewHolidaySet(holidays)

	// Staleness gate: every requested date must still carry an office record
	// for the favorite. One stale date rejects the whole batch; this is a
	// coarse compare-and-swap over the batch, not per-date.
	for _, date := range dates {
		if fav, ok := favMap[date]; !ok || fav.Status != StatusOffice {
			return nil, ErrScheduleChanged
		}
	}

	// Phase 2: sequential per-date loop. Outcomes are independent; results
	// preserve input order.
	today := m.now()
	results := make([]DateResult, 0, len(dates))
	processed, skipped := 0, 0

	for _, date := range dates {
		res := m.applyOne(ctx, actingUserID, actingRole, date, today, holidaySet, userMap, overrideLeave)
		if res.Success {
			processed++
		} else {
			skipped++
		}
		results = append(results, res)
	}

	return &ApplyResult{Processed: processed, Skipped: skipped, Results: results}, nil
}

func (m *Matcher) applyOne(ctx context.Context, userID string, role Role, date, today string, holidaySet HolidaySet, userMap map[string]Entry, overrideLeave bool) DateResult {
	if !ValidDate(date) {
		return DateResult{Date: date, Message: MsgInvalidDate}
	}
	if IsWeekend(date) {
		return DateResult{Date: date, Message: MsgWeekend}
	}
	if holidaySet.Contains(date) {
		return DateResult{Date: date, Message: MsgHoliday}
	}
	if !IsEditable(date, role, today) {
		return DateResult{Date: date, Message: MsgOutsideWindow}
	}

	switch ResolveFromMap(date, holidaySet, userMap) {
	case EffectiveOffice:
		// Idempotent no-op.
		return DateResult{Date: date, Success: true, Message: MsgAlreadyMatch}
	case EffectiveLeave:
		if !overrideLeave {
			return DateResult{Date: date, Message: MsgLeaveConflict}
		}
	}

	// Upsert replaces the record wholesale, clearing any note or time window
	// the previous entry carried. Store failures are per-date failures.
	_, err := m.entries.Upsert(ctx, UpsertParams{UserID: userID, Date: date, Status: StatusOffice})
	if err != nil {
		return DateResult{Date: date, Message: MsgApplyFailed}
	}
	return DateResult{Date: date, Success: true}
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Matcher) lookupActiveUser(ctx context.Context, id string) (*User, error) {
	u, err := m.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, &NotFoundError{Kind: "user", ID: id}
	}
	return u, nil
}

// fetchFacts issues the three store reads concurrently and joins them.
func (m *Matcher) fetchFacts(ctx context.Context,
	favFn, userFn func(context.Context) ([]Entry, error),
	holFn func(context.Context) ([]Holiday, error),
) (fav, user []Entry, holidays []Holiday, err error) {
	var wg sync.WaitGroup
	var favErr, userErr, holErr error

	wg.Add(3)
	go func() { defer wg.Done(); fav, favErr = favFn(ctx) }()
	go func() { defer wg.Done(); user, userErr = userFn(ctx) }()
	go func() { defer wg.Done(); holidays, holErr = holFn(ctx) }()
	wg.Wait()

	for _, e := range []error{favErr, userErr, holErr} {
		if e != nil {
			return nil, nil, nil, e
		}
	}
	return fav, user, holidays, nil
}

func latestUpdate(entries []Entry) *time.Time {
	var latest time.Time
	for _, e := range entries {
		if e.UpdatedAt.After(latest) {
			latest = e.UpdatedAt
		}
	}
	if latest.IsZero() {
		return nil
	}
	return &latest
}
