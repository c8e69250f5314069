/*
holidays.go - Holiday persistence

Implements presence.HolidayStore plus the admin CRUD. The unique index on
date enforces one holiday per date.
*/
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warp/presence-engine/presence"
)

// FindInRange returns holidays in [start, end], ordered by date.
func (s *Store) FindInRange(ctx context.Context, start, end string) ([]presence.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, created_at
		FROM holidays
		WHERE date >= ? AND date <= ?
		ORDER BY date
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var out []presence.Holiday
	for rows.Next() {
		var h presence.Holiday
		var createdAt string
		if err := rows.Scan(&h.ID, &h.Date, &h.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.CreatedAt = parseTime(createdAt)
		out = append(out, h)
	}
	return out, rows.Err()
}

// SaveHoliday inserts a holiday. Returns presence.ErrDuplicateHoliday when
// the date already has one.
func (s *Store) SaveHoliday(ctx context.Context, date, name string) (*presence.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := presence.Holiday{
		ID:        uuid.NewString(),
		Date:      date,
		Name:      name,
		CreatedAt: s.now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, created_at)
		VALUES (?, ?, ?, ?)
	`, h.ID, h.Date, h.Name, h.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, presence.ErrDuplicateHoliday
		}
		return nil, fmt.Errorf("failed to save holiday: %w", err)
	}
	return &h, nil
}

// DeleteHoliday removes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return &presence.NotFoundError{Kind: "holiday", ID: id}
	}
	return nil
}
