/*
users.go - User directory persistence

Implements presence.UserDirectory plus the admin-facing mutations. Password
hashes are stored here but only surfaced by FindByEmailWithPassword; every
other lookup leaves PasswordHash empty.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/presence-engine/presence"
)

const userColumns = `id, name, email, role, is_active, created_at, updated_at`

// SaveUser inserts a new user. Returns presence.ErrEmailTaken when the
// email is already registered.
func (s *Store) SaveUser(ctx context.Context, u presence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.IsActive, now, now)
	if err != nil {
		if isUniqueConstraintError(err) {
			return presence.ErrEmailTaken
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// FindByID returns the user or nil when missing. No password hash.
func (s *Store) FindByID(ctx context.Context, id string) (*presence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByID(ctx, id)
}

// findByID is FindByID without locking; the caller holds s.mu.
func (s *Store) findByID(ctx context.Context, id string) (*presence.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// FindByEmailWithPassword returns the user including the password hash,
// or nil when missing. Login path only.
func (s *Store) FindByEmailWithPassword(ctx context.Context, email string) (*presence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, is_active, created_at, updated_at
		FROM users WHERE email = ?
	`, email)

	var u presence.User
	var role, createdAt, updatedAt string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.IsActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.Role = presence.Role(role)
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}

// FindActive returns all active users ordered by name.
func (s *Store) FindActive(ctx context.Context) ([]presence.User, error) {
	return s.listUsers(ctx, `SELECT `+userColumns+` FROM users WHERE is_active = TRUE ORDER BY name`)
}

// FindAll returns every user ordered by name. Admin listing.
func (s *Store) FindAll(ctx context.Context) ([]presence.User, error) {
	return s.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
}

// UserUpdate carries an admin's partial user update; nil fields are left
// untouched.
type UserUpdate struct {
	Name     *string
	Email    *string
	Role     *presence.Role
	IsActive *bool
}

// UpdateUser applies a partial update. Returns presence.ErrNotFound when the
// user does not exist, presence.ErrEmailTaken on an email collision.
func (s *Store) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*presence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := "updated_at = ?"
	args := []any{s.now().Format(time.RFC3339)}
	if upd.Name != nil {
		set += ", name = ?"
		args = append(args, *upd.Name)
	}
	if upd.Email != nil {
		set += ", email = ?"
		args = append(args, *upd.Email)
	}
	if upd.Role != nil {
		set += ", role = ?"
		args = append(args, string(*upd.Role))
	}
	if upd.IsActive != nil {
		set += ", is_active = ?"
		args = append(args, *upd.IsActive)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE users SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, presence.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, &presence.NotFoundError{Kind: "user", ID: id}
	}
	// Read back under the same lock so the returned snapshot is exactly
	// the state this update produced.
	return s.findByID(ctx, id)
}

// UpdatePassword replaces a user's password hash.
func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, s.now().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return &presence.NotFoundError{Kind: "user", ID: id}
	}
	return nil
}

// DeleteUser removes the user together with their entries and favorite
// links (both directions), in one transaction.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return &presence.NotFoundError{Kind: "user", ID: id}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = ? OR favorite_id = ?`, id, id); err != nil {
		return fmt.Errorf("failed to delete user favorites: %w", err)
	}
	return tx.Commit()
}

// CountUsers returns the number of user rows. Seed bootstrap check.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (s *Store) listUsers(ctx context.Context, query string) ([]presence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []presence.User
	for rows.Next() {
		var u presence.User
		var role, createdAt, updatedAt string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.IsActive, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = presence.Role(role)
		u.CreatedAt = parseTime(createdAt)
		u.UpdatedAt = parseTime(updatedAt)
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row *sql.Row) (*presence.User, error) {
	var u presence.User
	var role, createdAt, updatedAt string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.IsActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.Role = presence.Role(role)
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}
