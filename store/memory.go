/*
Package store provides an in-memory implementation of the presence storage
interfaces, for tests and development. Mirrors the sqlite package's observable
behavior: upsert replaces, delete is idempotent, reads are ordered where the
interface promises order.
*/
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/presence-engine/presence"
)

// Memory implements EntryStore, UserDirectory, HolidayStore and
// FavoriteStore in process.
type Memory struct {
	mu        sync.RWMutex
	users     map[string]presence.User
	entries   map[entryKey]presence.Entry
	holidays  map[string]presence.Holiday // by date
	favorites map[string]map[string]bool  // userID -> favoriteID set

	// Now supplies entry timestamps; overridable so tests can pin updatedAt.
	Now func() time.Time
}

type entryKey struct {
	UserID string
	Date   string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]presence.User),
		entries:   make(map[entryKey]presence.Entry),
		holidays:  make(map[string]presence.Holiday),
		favorites: make(map[string]map[string]bool),
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func (m *Memory) Upsert(_ context.Context, p presence.UpsertParams) (*presence.Entry, error) {
	n, err := p.Normalize()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := entryKey{UserID: n.UserID, Date: n.Date}
	now := m.Now()
	e, existed := m.entries[k]
	if !existed {
		e = presence.Entry{ID: uuid.NewString(), UserID: n.UserID, Date: n.Date, CreatedAt: now}
	}
	e.Status = n.Status
	e.Note = n.Note
	e.StartTime = n.StartTime
	e.EndTime = n.EndTime
	e.UpdatedAt = now
	m.entries[k] = e
	return &e, nil
}

func (m *Memory) Delete(_ context.Context, userID, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := entryKey{UserID: userID, Date: date}
	_, existed := m.entries[k]
	delete(m.entries, k)
	return existed, nil
}

func (m *Memory) FindRange(_ context.Context, userID, start, end string) ([]presence.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []presence.Entry
	for k, e := range m.entries {
		if k.UserID == userID && k.Date >= start && k.Date <= end {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *Memory) FindForUsers(_ context.Context, userIDs []string, start, end string) ([]presence.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	var out []presence.Entry
	for k, e := range m.entries {
		if wanted[k.UserID] && k.Date >= start && k.Date <= end {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) FindDates(_ context.Context, userID string, dates []string) ([]presence.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []presence.Entry
	for _, d := range dates {
		if e, ok := m.entries[entryKey{UserID: userID, Date: d}]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// =============================================================================
// USER DIRECTORY
// =============================================================================

// PutUser inserts or replaces a user record. Test seeding helper.
func (m *Memory) PutUser(u presence.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *Memory) FindByID(_ context.Context, id string) (*presence.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) FindActive(_ context.Context) ([]presence.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []presence.User
	for _, u := range m.users {
		if u.IsActive {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// =============================================================================
// HOLIDAY STORE
// =============================================================================

// PutHoliday inserts or replaces a holiday by date. Test seeding helper.
func (m *Memory) PutHoliday(h presence.Holiday) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	m.holidays[h.Date] = h
}

func (m *Memory) FindInRange(_ context.Context, start, end string) ([]presence.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []presence.Holiday
	for _, h := range m.holidays {
		if h.Date >= start && h.Date <= end {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// =============================================================================
// FAVORITE STORE
// =============================================================================

func (m *Memory) List(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for id := range m.favorites[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Add(_ context.Context, userID, favoriteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.favorites[userID] == nil {
		m.favorites[userID] = make(map[string]bool)
	}
	m.favorites[userID][favoriteID] = true
	return nil
}

func (m *Memory) Remove(_ context.Context, userID, favoriteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.favorites[userID], favoriteID)
	return nil
}

func (m *Memory) Exists(_ context.Context, userID, favoriteID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.favorites[userID][favoriteID], nil
}
