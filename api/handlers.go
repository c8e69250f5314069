/*
handlers.go - HTTP API handlers for the presence engine

PURPOSE:
  Exposes the presence engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS (this file):
  Auth:
    POST   /api/auth/register          Create own account
    POST   /api/auth/login             Exchange credentials for a token
    GET    /api/auth/me                Current user
    PUT    /api/auth/profile           Rename self

  Entries:
    PUT    /api/entries                Set own day status
    DELETE /api/entries/{date}         Revert own day to WFH
    GET    /api/entries                Own entries in a range
    GET    /api/entries/team           Team month view
    GET    /api/entries/export.ics     Own schedule as iCalendar

  Favorites:
    GET    /api/users/favorites        List favorites
    POST   /api/users/favorites/{userId}  Toggle favorite

  Stats:
    GET    /api/stats/summary          Presence counts and office rate

  Admin and schedule-matcher endpoints live in admin.go / schedule.go.

ERROR HANDLING:
  Domain errors map onto HTTP statuses in one place (writeDomainError):
  400 validation, 404 not found, 409 conflict/staleness, 500 otherwise.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/presence-engine/auth"
	"github.com/warp/presence-engine/presence"
	"github.com/warp/presence-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Tokens *auth.TokenManager

	matcher    *presence.Matcher
	aggregator *presence.Aggregator
	stats      *presence.Statistician
}

// NewHandler creates a handler over the given store and token manager.
func NewHandler(store *sqlite.Store, tokens *auth.TokenManager) *Handler {
	return &Handler{
		Store:      store,
		Tokens:     tokens,
		matcher:    presence.NewMatcher(store, store, store),
		aggregator: presence.NewAggregator(store, store, store),
		stats:      presence.NewStatistician(store, store),
	}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Register creates an account and returns a session token.
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.createUser(r, req.Name, req.Email, req.Password, presence.RoleMember)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := h.Tokens.Generate(*user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{User: toUserDTO(*user), Token: token})
}

// Login exchanges credentials for a session token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required", nil)
		return
	}

	user, err := h.Store.FindByEmailWithPassword(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Login failed", err)
		return
	}
	if user == nil || !user.IsActive || auth.VerifyPassword(user.PasswordHash, req.Password) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := h.Tokens.Generate(*user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	user.PasswordHash = ""
	writeJSON(w, http.StatusOK, AuthResponse{User: toUserDTO(*user), Token: token})
}

// Me returns the authenticated user.
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// UpdateProfile renames the authenticated user.
// PUT /api/auth/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	name := presence.SanitizeText(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	updated, err := h.Store.UpdateUser(r.Context(), user.ID, sqlite.UserUpdate{Name: &name})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*updated))
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// UpsertEntry sets or updates the caller's status for a date.
// PUT /api/entries
func (h *Handler) UpsertEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var req UpsertEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.upsertFor(w, r, user.ID, user.Role, req)
}

// upsertFor validates the data-entry rules shared by the member and admin
// upsert endpoints, then writes through the store.
func (h *Handler) upsertFor(w http.ResponseWriter, r *http.Request, targetUserID string, actorRole presence.Role, req UpsertEntryRequest) {
	if !presence.ValidDate(req.Date) {
		writeError(w, http.StatusBadRequest, "Date must be in YYYY-MM-DD format", nil)
		return
	}

	today := presence.Today()
	if actorRole != presence.RoleAdmin {
		if presence.IsPast(req.Date, today) {
			writeError(w, http.StatusForbidden, "Cannot modify past dates", nil)
			return
		}
		if !presence.IsWithinPlanningWindow(req.Date, today) {
			writeError(w, http.StatusForbidden, "Date must be within 90 days from today", nil)
			return
		}
	}

	// Weekends and holidays are excluded at the data-entry layer for
	// everyone, admins included.
	if presence.IsWeekend(req.Date) {
		writeError(w, http.StatusBadRequest, "Cannot set a status on a weekend", nil)
		return
	}
	holidays, err := h.Store.FindInRange(r.Context(), req.Date, req.Date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check holidays", err)
		return
	}
	if len(holidays) > 0 {
		writeError(w, http.StatusBadRequest, "Cannot set a status on a public holiday", nil)
		return
	}

	entry, err := h.Store.Upsert(r.Context(), presence.UpsertParams{
		UserID:    targetUserID,
		Date:      req.Date,
		Status:    presence.Status(req.Status),
		Note:      req.Note,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

// DeleteEntry reverts the caller's date to implicit WFH.
// DELETE /api/entries/{date}
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	date := chi.URLParam(r, "date")

	if user.Role != presence.RoleAdmin && presence.IsPast(date, presence.Today()) {
		writeError(w, http.StatusForbidden, "Cannot modify past dates", nil)
		return
	}

	existed, err := h.Store.Delete(r.Context(), user.ID, date)
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

// ListEntries returns the caller's entries for a range.
// GET /api/entries?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")

	if !presence.ValidDate(start) || !presence.ValidDate(end) {
		writeError(w, http.StatusBadRequest, "startDate and endDate are required (YYYY-MM-DD)", nil)
		return
	}

	entries, err := h.Store.FindRange(r.Context(), user.ID, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// TeamEntries returns the resolved month view for all active users.
// GET /api/entries/team?month=YYYY-MM
func (h *Handler) TeamEntries(w http.ResponseWriter, r *http.Request) {
	month, err := h.aggregator.Month(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	holidays := make([]HolidayDTO, len(month.Holidays))
	for i, hol := range month.Holidays {
		holidays[i] = HolidayDTO{ID: hol.ID, Date: hol.Date, Name: hol.Name}
	}

	team := make([]MemberCalendarDTO, len(month.Team))
	for i, member := range month.Team {
		days := make(map[string]DayCellDTO, len(member.Days))
		for date, cell := range member.Days {
			days[date] = DayCellDTO{
				Status:    string(cell.Status),
				Note:      cell.Note,
				StartTime: cell.StartTime,
				EndTime:   cell.EndTime,
			}
		}
		team[i] = MemberCalendarDTO{
			User: UserRefDTO{ID: member.User.ID, Name: member.User.Name, Email: member.User.Email},
			Role: string(member.User.Role),
			Days: days,
		}
	}

	writeJSON(w, http.StatusOK, TeamMonthDTO{
		Month:     month.Month,
		StartDate: month.StartDate,
		EndDate:   month.EndDate,
		Today:     month.Today,
		Holidays:  holidays,
		Team:      team,
	})
}

// =============================================================================
// FAVORITE HANDLERS
// =============================================================================

// ListFavorites returns the caller's favorites with minimal user data.
// GET /api/users/favorites
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	ids, err := h.Store.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list favorites", err)
		return
	}

	refs := make([]UserRefDTO, 0, len(ids))
	for _, id := range ids {
		fav, err := h.Store.FindByID(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load favorite", err)
			return
		}
		if fav == nil {
			continue // deleted since it was favorited
		}
		refs = append(refs, UserRefDTO{ID: fav.ID, Name: fav.Name, Email: fav.Email})
	}
	writeJSON(w, http.StatusOK, refs)
}

// ToggleFavorite adds or removes a favorite.
// POST /api/users/favorites/{userId}
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	targetID := chi.URLParam(r, "userId")

	if targetID == user.ID {
		writeError(w, http.StatusBadRequest, "Cannot favorite yourself", nil)
		return
	}

	target, err := h.Store.FindByID(r.Context(), targetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	if target == nil || !target.IsActive {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	exists, err := h.Store.Exists(r.Context(), user.ID, targetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to toggle favorite", err)
		return
	}

	action := "added"
	if exists {
		action = "removed"
		err = h.Store.Remove(r.Context(), user.ID, targetID)
	} else {
		err = h.Store.Add(r.Context(), user.ID, targetID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to toggle favorite", err)
		return
	}

	ids, err := h.Store.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list favorites", err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleFavoriteResponse{Action: action, Favorites: ids})
}

// =============================================================================
// STATS HANDLER
// =============================================================================

// StatsSummary returns presence counts and the office rate for a range.
// Members see their own stats; admins may pass userId for anyone.
// GET /api/stats/summary?startDate=...&endDate=...[&userId=...]
func (h *Handler) StatsSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	targetID := user.ID
	if requested := r.URL.Query().Get("userId"); requested != "" && requested != user.ID {
		if user.Role != presence.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin access required for other users' stats", nil)
			return
		}
		targetID = requested
	}

	stats, err := h.stats.Summarize(r.Context(), targetID,
		r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RangeStatsDTO{
		UserID:      stats.UserID,
		StartDate:   stats.StartDate,
		EndDate:     stats.EndDate,
		OfficeDays:  stats.OfficeDays,
		LeaveDays:   stats.LeaveDays,
		WFHDays:     stats.WFHDays,
		HolidayDays: stats.HolidayDays,
		WeekendDays: stats.WeekendDays,
		WorkingDays: stats.WorkingDays,
		OfficeRate:  stats.OfficeRate.StringFixed(1),
	})
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// createUser validates and persists a new account. Shared by Register and
// the admin CreateUser endpoint.
func (h *Handler) createUser(r *http.Request, name, email, password string, role presence.Role) (*presence.User, error) {
	name = presence.SanitizeText(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, presence.Validationf("name", "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, presence.Validationf("email", "a valid email is required")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, presence.Validationf("password", "password must be at least %d characters", auth.MinPasswordLength)
	}
	if !role.Valid() {
		return nil, presence.Validationf("role", `role must be "member" or "admin"`)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := presence.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         role,
		IsActive:     true,
		PasswordHash: hash,
	}
	if err := h.Store.SaveUser(r.Context(), user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	user.CreatedAt = time.Now().UTC()
	return &user, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case presence.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case presence.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, presence.ErrScheduleChanged):
		writeError(w, http.StatusConflict, "Schedule has changed. Please review again.", nil)
	case presence.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
