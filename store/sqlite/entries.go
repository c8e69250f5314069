/*
entries.go - Attendance entry persistence

Implements presence.EntryStore. Upsert is INSERT .. ON CONFLICT DO UPDATE on
the (user_id, date) unique index, which makes the replace atomic and
last-write-wins under concurrency. NULL columns mean "field not stored";
empty strings never reach the database.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warp/presence-engine/presence"
)

// Upsert validates p and creates or replaces the (user, date) record.
// All optional fields of the stored row are replaced by the new values;
// a field not carried by p ends up NULL.
func (s *Store) Upsert(ctx context.Context, p presence.UpsertParams) (*presence.Entry, error) {
	n, err := p.Normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Format(time.RFC3339)
	query := `
		INSERT INTO entries (id, user_id, date, status, note, start_time, end_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			status = excluded.status,
			note = excluded.note,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.NewString(),
		n.UserID,
		n.Date,
		string(n.Status),
		nullString(n.Note),
		nullString(n.StartTime),
		nullString(n.EndTime),
		now,
		now,
	)
	if err != nil {
		// ON CONFLICT handles the expected race; anything still surfacing a
		// uniqueness violation is reported as retryable.
		if isUniqueConstraintError(err) {
			return nil, presence.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("failed to upsert entry: %w", err)
	}

	return s.findOne(ctx, n.UserID, n.Date)
}

// Delete removes the (user, date) record. Idempotent; the bool reports
// whether a record existed.
func (s *Store) Delete(ctx context.Context, userID, date string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE user_id = ? AND date = ?`, userID, date)
	if err != nil {
		return false, fmt.Errorf("failed to delete entry: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// FindRange returns the user's entries in [start, end], ordered by date.
func (s *Store) FindRange(ctx context.Context, userID, start, end string) ([]presence.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, status, note, start_time, end_time, created_at, updated_at
		FROM entries
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// FindForUsers returns all entries for the given users in [start, end].
func (s *Store) FindForUsers(ctx context.Context, userIDs []string, start, end string) ([]presence.Entry, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	args := make([]any, 0, len(userIDs)+2)
	for _, id := range userIDs {
		args = append(args, id)
	}
	args = append(args, start, end)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, user_id, date, status, note, start_time, end_time, created_at, updated_at
		FROM entries
		WHERE user_id IN (%s) AND date >= ? AND date <= ?
	`, placeholders(len(userIDs))), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// FindDates returns the user's entries for exactly the given dates.
func (s *Store) FindDates(ctx context.Context, userID string, dates []string) ([]presence.Entry, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	args := make([]any, 0, len(dates)+1)
	args = append(args, userID)
	for _, d := range dates {
		args = append(args, d)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, user_id, date, status, note, start_time, end_time, created_at, updated_at
		FROM entries
		WHERE user_id = ? AND date IN (%s)
	`, placeholders(len(dates))), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *Store) findOne(ctx context.Context, userID, date string) (*presence.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, status, note, start_time, end_time, created_at, updated_at
		FROM entries
		WHERE user_id = ? AND date = ?
	`, userID, date)

	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry back: %w", err)
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*presence.Entry, error) {
	var e presence.Entry
	var status string
	var note, startTime, endTime sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&e.ID, &e.UserID, &e.Date, &status, &note, &startTime, &endTime, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Status = presence.Status(status)
	e.Note = fromNull(note)
	e.StartTime = fromNull(startTime)
	e.EndTime = fromNull(endTime)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]presence.Entry, error) {
	var out []presence.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
