/*
favorites.go - Favorite relation persistence

Implements presence.FavoriteStore. The relation is directed and carries no
invariant beyond "no self-favorite", which the handler enforces before the
store is reached.
*/
package sqlite

import (
	"context"
	"fmt"
	"time"
)

// List returns the IDs the user has favorited, in insertion order.
func (s *Store) List(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT favorite_id FROM favorites WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Add records a favorite link. Adding an existing link is a no-op.
func (s *Store) Add(ctx context.Context, userID, favoriteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, favorite_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, favorite_id) DO NOTHING
	`, userID, favoriteID, s.now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove deletes a favorite link. Idempotent.
func (s *Store) Remove(ctx context.Context, userID, favoriteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND favorite_id = ?`, userID, favoriteID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// Exists reports whether the user has favorited favoriteID.
func (s *Store) Exists(ctx context.Context, userID, favoriteID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = ? AND favorite_id = ?`,
		userID, favoriteID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query favorite: %w", err)
	}
	return n > 0, nil
}
