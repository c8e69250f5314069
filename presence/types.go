/*
types.go - Core domain types for the presence engine

PURPOSE:
  Defines the attendance model and the storage interfaces the rest of the
  system is built on. A day's stored record only ever says "office" or
  "leave"; everything else (wfh, holiday, weekend) is derived on read by
  the resolver so stored and derived truth can never drift apart.

KEY TYPES:
  Status:          What a user explicitly declared (office, leave)
  EffectiveStatus: What is actually shown for a date (adds wfh/holiday/weekend)
  Entry:           One record per (user, date) - the only mutable state
  Holiday:         A company-wide non-working date
  User:            Directory record (auth lives in the auth package)

STORAGE INTERFACES:
  EntryStore, UserDirectory, HolidayStore, FavoriteStore. The sqlite
  package implements all four; the memory store implements the subset
  needed for pure-logic tests.

SEE ALSO:
  - resolver.go: Status derivation rules
  - matcher.go: Schedule alignment built on these interfaces
  - store/sqlite: Persistent implementation
*/
package presence

import (
	"context"
	"time"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is a user's explicitly declared status for a date.
// Absence of an Entry means the user is implicitly working from home.
type Status string

const (
	StatusOffice Status = "office"
	StatusLeave  Status = "leave"
)

// Valid reports whether s is one of the declarable statuses.
func (s Status) Valid() bool {
	return s == StatusOffice || s == StatusLeave
}

// EffectiveStatus is what a date resolves to once weekend and holiday
// precedence has been applied. Derived, never persisted.
type EffectiveStatus string

const (
	EffectiveOffice  EffectiveStatus = "office"
	EffectiveLeave   EffectiveStatus = "leave"
	EffectiveWFH     EffectiveStatus = "wfh"
	EffectiveHoliday EffectiveStatus = "holiday"
	EffectiveWeekend EffectiveStatus = "weekend"
)

// =============================================================================
// RECORDS
// =============================================================================

// Entry is one attendance record. At most one exists per (UserID, Date);
// writes are create-or-replace, never append.
type Entry struct {
	ID        string
	UserID    string
	Date      string // YYYY-MM-DD
	Status    Status
	Note      string // empty = no note stored
	StartTime string // HH:mm, empty = no time window
	EndTime   string // HH:mm
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasTimeWindow reports whether the entry carries an office time window.
func (e Entry) HasTimeWindow() bool {
	return e.StartTime != "" && e.EndTime != ""
}

// Holiday is a company holiday. The date is unique and never individually
// editable by anyone, admin included.
type Holiday struct {
	ID        string
	Date      string // YYYY-MM-DD, unique
	Name      string
	CreatedAt time.Time
}

// Role controls the edit-window policy and admin-only endpoints.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// User is a directory record. PasswordHash is only populated by lookups
// that explicitly need it (login, password reset).
type User struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	IsActive     bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// =============================================================================
// STORAGE INTERFACES
// =============================================================================

// UpsertParams carries one attendance write. Note, StartTime and EndTime are
// three-state: nil means "not provided", pointer-to-empty means "explicitly
// cleared". Upsert replaces the stored record, so both collapse to the field
// being absent afterwards; the distinction exists at the boundary so the
// sentinel is never an empty string deep inside the system.
type UpsertParams struct {
	UserID    string
	Date      string
	Status    Status
	Note      *string
	StartTime *string
	EndTime   *string
}

// EntryStore owns all attendance records.
type EntryStore interface {
	// Upsert validates params and creates or replaces the (user, date) record.
	Upsert(ctx context.Context, p UpsertParams) (*Entry, error)

	// Delete removes the record, reverting the date to implicit WFH.
	// Deleting a missing record is not an error; the bool reports whether
	// anything existed (used for user-facing messaging only).
	Delete(ctx context.Context, userID, date string) (bool, error)

	// FindRange returns the user's entries in [start, end], ordered by date.
	FindRange(ctx context.Context, userID, start, end string) ([]Entry, error)

	// FindForUsers returns all entries for the given users in [start, end].
	// No ordering guarantee; callers group by user.
	FindForUsers(ctx context.Context, userIDs []string, start, end string) ([]Entry, error)

	// FindDates returns the user's entries for exactly the given dates.
	FindDates(ctx context.Context, userID string, dates []string) ([]Entry, error)
}

// UserDirectory is the user lookup surface the core consumes.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*User, error)

	// FindActive returns all active users ordered by name.
	FindActive(ctx context.Context) ([]User, error)
}

// HolidayStore provides holiday facts.
type HolidayStore interface {
	FindInRange(ctx context.Context, start, end string) ([]Holiday, error)
}

// FavoriteStore holds each user's set of favorite colleagues.
type FavoriteStore interface {
	List(ctx context.Context, userID string) ([]string, error)
	Add(ctx context.Context, userID, favoriteID string) error
	Remove(ctx context.Context, userID, favoriteID string) error
	Exists(ctx context.Context, userID, favoriteID string) (bool, error)
}

// HolidaySet is a date-keyed lookup built from a FindInRange result.
type HolidaySet map[string]Holiday

// NewHolidaySet indexes holidays by date.
func NewHolidaySet(holidays []Holiday) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		set[h.Date] = h
	}
	return set
}

// Contains reports whether the date has a holiday record.
func (s HolidaySet) Contains(date string) bool {
	_, ok := s[date]
	return ok
}

// EntriesByDate indexes entries by their date string.
func EntriesByDate(entries []Entry) map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Date] = e
	}
	return m
}
