/*
middleware.go - Request authentication

Bearer-token middleware for chi. On every authenticated request the user is
re-read from the directory, so role changes and deactivation apply
immediately rather than when the token expires.
*/
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/warp/presence-engine/presence"
)

type ctxKey int

const userCtxKey ctxKey = iota

// UserFrom returns the authenticated user stored in the request context.
// ok is false on unauthenticated requests (middleware not applied).
func UserFrom(ctx context.Context) (presence.User, bool) {
	u, ok := ctx.Value(userCtxKey).(presence.User)
	return u, ok
}

// ContextWithUser stores a user in the context the way Require does.
func ContextWithUser(ctx context.Context, u presence.User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

// Middleware authenticates requests and loads the current user.
type Middleware struct {
	Tokens *TokenManager
	Users  presence.UserDirectory
}

// Require rejects requests without a valid bearer token for an active user,
// and stores the loaded user in the request context otherwise.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "Authorization header with Bearer token is required")
			return
		}

		claims, err := m.Tokens.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}

		user, err := m.Users.FindByID(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if user == nil || !user.IsActive {
			unauthorized(w, "Account not found or deactivated")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), *user)))
	})
}

// RequireAdmin allows only admins through. Must run after Require.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		if !ok || user.Role != presence.RoleAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "Admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
