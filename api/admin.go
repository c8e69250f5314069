/*
admin.go - Admin-only endpoints

PURPOSE:
  User administration, holiday management, and the unrestricted entry
  upsert. All routes here sit behind the admin middleware.

ENDPOINTS:
  GET    /api/admin/users                User list (active and inactive)
  POST   /api/admin/users               Create a user with any role
  PUT    /api/admin/users/{userId}       Partial update (name/email/role/active)
  POST   /api/admin/users/{userId}/reset-password
  DELETE /api/admin/users/{userId}       Delete user and cascade their data
  PUT    /api/admin/entries              Upsert any user's entry, no window
  DELETE /api/admin/entries/{userId}/{date}  Revert any user's date to WFH
  POST   /api/holidays                   Create a holiday
  DELETE /api/holidays/{id}              Remove a holiday

  GET /api/holidays is readable by every authenticated user and lives in
  this file for proximity to the write side.

SEE ALSO:
  - auth/middleware.go: RequireAdmin gate
  - store/sqlite/users.go: Cascade semantics of DeleteUser
*/
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/warp/presence-engine/auth"
	"github.com/warp/presence-engine/presence"
	"github.com/warp/presence-engine/store/sqlite"
)

// =============================================================================
// USER ADMINISTRATION
// =============================================================================

// AdminListUsers returns every user, inactive ones included.
// GET /api/admin/users
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.FindAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AdminCreateUser creates a user with an arbitrary role.
// POST /api/admin/users
func (h *Handler) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role := presence.Role(req.Role)
	if req.Role == "" {
		role = presence.RoleMember
	}

	user, err := h.createUser(r, req.Name, req.Email, req.Password, role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(*user))
}

// AdminUpdateUser applies a partial update. Deactivating a user hides them
// from the team view and the matcher without touching their records.
// PUT /api/admin/users/{userId}
func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userId")

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	upd := sqlite.UserUpdate{IsActive: req.IsActive}
	if req.Name != nil {
		name := presence.SanitizeText(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "Name cannot be empty", nil)
			return
		}
		upd.Name = &name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" || !strings.Contains(email, "@") {
			writeError(w, http.StatusBadRequest, "A valid email is required", nil)
			return
		}
		upd.Email = &email
	}
	if req.Role != nil {
		role := presence.Role(*req.Role)
		if !role.Valid() {
			writeError(w, http.StatusBadRequest, `Role must be "member" or "admin"`, nil)
			return
		}
		upd.Role = &role
	}

	user, err := h.Store.UpdateUser(r.Context(), id, upd)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// AdminResetPassword replaces a user's password.
// POST /api/admin/users/{userId}/reset-password
func (h *Handler) AdminResetPassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userId")

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeError(w, http.StatusBadRequest, "Password is too short", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset password", err)
		return
	}
	if err := h.Store.UpdatePassword(r.Context(), id, hash); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset"})
}

// AdminDeleteUser removes a user and cascades to their entries and
// favorites. Self-deletion is rejected so the last admin cannot lock
// everyone out by accident.
// DELETE /api/admin/users/{userId}
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFrom(r.Context())
	id := chi.URLParam(r, "userId")

	if id == actor.ID {
		writeError(w, http.StatusBadRequest, "Cannot delete your own account", nil)
		return
	}

	if err := h.Store.DeleteUser(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// AdminUpsertEntry writes any user's entry without the planning-window or
// past-date restrictions. Weekend and holiday dates stay off limits.
// PUT /api/admin/entries
func (h *Handler) AdminUpsertEntry(w http.ResponseWriter, r *http.Request) {
	var req AdminUpsertEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	target, err := h.Store.FindByID(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	h.upsertFor(w, r, target.ID, presence.RoleAdmin, req.UpsertEntryRequest)
}

// AdminDeleteEntry reverts any user's date to implicit WFH.
// DELETE /api/admin/entries/{userId}/{date}
func (h *Handler) AdminDeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	date := chi.URLParam(r, "date")

	existed, err := h.Store.Delete(r.Context(), userID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete entry", err)
		return
	}

	message := "No entry found"
	if existed {
		message = "Entry removed (status reverted to WFH)"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// ListHolidays returns holidays in a range, defaulting to the current year.
// GET /api/holidays?startDate=...&endDate=...
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")
	if start == "" || end == "" {
		year := presence.Today()[:4]
		start, end = year+"-01-01", year+"-12-31"
	}
	if !presence.ValidDate(start) || !presence.ValidDate(end) {
		writeError(w, http.StatusBadRequest, "startDate and endDate must be in YYYY-MM-DD format", nil)
		return
	}

	holidays, err := h.Store.FindInRange(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = HolidayDTO{ID: hol.ID, Date: hol.Date, Name: hol.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a company holiday. Duplicate dates are rejected.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !presence.ValidDate(req.Date) {
		writeError(w, http.StatusBadRequest, "Date must be in YYYY-MM-DD format", nil)
		return
	}
	name := presence.SanitizeText(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	holiday, err := h.Store.SaveHoliday(r.Context(), req.Date, name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{ID: holiday.ID, Date: holiday.Date, Name: holiday.Name})
}

// DeleteHoliday removes a holiday by id.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Holiday deleted"})
}
