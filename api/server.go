/*
server.go - HTTP server and routing

PURPOSE:
  Builds the chi router, wires middleware (request logging, recovery,
  CORS, metrics) and groups routes by the auth they need: public,
  authenticated, admin.

SEE ALSO:
  - handlers.go, admin.go, schedule.go, ical.go: Endpoint implementations
  - auth/middleware.go: Token validation and role gates
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/presence-engine/auth"
	"github.com/warp/presence-engine/metrics"
)

// NewRouter assembles the full route tree.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	guard := &auth.Middleware{Tokens: h.Tokens, Users: h.Store}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public.
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		// Authenticated.
		r.Group(func(r chi.Router) {
			r.Use(guard.Require)

			r.Get("/auth/me", h.Me)
			r.Put("/auth/profile", h.UpdateProfile)

			r.Put("/entries", h.UpsertEntry)
			r.Delete("/entries/{date}", h.DeleteEntry)
			r.Get("/entries", h.ListEntries)
			r.Get("/entries/team", h.TeamEntries)
			r.Get("/entries/export.ics", h.ExportICS)
			r.Post("/schedule/match-preview", h.MatchPreview)
			r.Post("/schedule/match-apply", h.MatchApply)

			r.Get("/users/favorites", h.ListFavorites)
			r.Post("/users/favorites/{userId}", h.ToggleFavorite)

			r.Get("/holidays", h.ListHolidays)
			r.Get("/stats/summary", h.StatsSummary)

			// Admin.
			r.Group(func(r chi.Router) {
				r.Use(guard.RequireAdmin)

				r.Get("/admin/users", h.AdminListUsers)
				r.Post("/admin/users", h.AdminCreateUser)
				r.Put("/admin/users/{userId}", h.AdminUpdateUser)
				r.Post("/admin/users/{userId}/reset-password", h.AdminResetPassword)
				r.Delete("/admin/users/{userId}", h.AdminDeleteUser)
				r.Put("/admin/entries", h.AdminUpsertEntry)
				r.Delete("/admin/entries/{userId}/{date}", h.AdminDeleteEntry)

				r.Post("/holidays", h.CreateHoliday)
				r.Delete("/holidays/{id}", h.DeleteHoliday)
			})
		})
	})

	return r
}
