/*
seed.go - First-run bootstrap

A fresh database has no way to log in, so the server seeds one admin account
on startup when the users table is empty. Credentials come from config; the
handler for creating further users is admin-only.
*/
package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/warp/presence-engine/presence"
)

// EnsureAdmin creates an active admin user with the given credentials if and
// only if no users exist yet. Returns the created user, or nil when the
// database was already populated.
func (s *Store) EnsureAdmin(ctx context.Context, name, email, passwordHash string) (*presence.User, error) {
	n, err := s.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}

	admin := presence.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         presence.RoleAdmin,
		IsActive:     true,
		PasswordHash: passwordHash,
	}
	if err := s.SaveUser(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}
	admin.PasswordHash = ""
	return &admin, nil
}
