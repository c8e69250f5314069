/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the wire contract. Field names are camelCase and are part of the
  compatibility surface consumed by the calendar frontend - renaming one is
  a breaking change.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

THREE-STATE FIELDS:
  UpsertEntryRequest's note/startTime/endTime are *string: absent from the
  JSON means "not provided", present-but-empty means "explicitly cleared".
  Both end with the field unstored (upsert replaces the record), but the
  distinction is kept explicit at this boundary.

SEE ALSO:
  - handlers.go: Uses these types
  - presence/matcher.go: Domain types these mirror
*/
package api

import (
	"time"

	"github.com/warp/presence-engine/presence"
)

// =============================================================================
// USERS & AUTH
// =============================================================================

// UserDTO represents a user in API responses. Never carries credentials.
type UserDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func toUserDTO(u presence.User) UserDTO {
	dto := UserDTO{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     string(u.Role),
		IsActive: u.IsActive,
	}
	if !u.CreatedAt.IsZero() {
		dto.CreatedAt = u.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// UserRefDTO is the minimal user reference embedded in other payloads.
type UserRefDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterRequest creates the caller's own account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse returns the session token with the user it belongs to.
type AuthResponse struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

// UpdateProfileRequest renames the caller.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// CreateUserRequest is the admin user-creation payload.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserRequest is the admin partial update; nil fields are untouched.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// ResetPasswordRequest sets a user's password (admin).
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// =============================================================================
// ENTRIES
// =============================================================================

// EntryDTO represents one attendance record.
type EntryDTO struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	UpdatedAt string `json:"updatedAt"`
}

func toEntryDTO(e presence.Entry) EntryDTO {
	return EntryDTO{
		ID:        e.ID,
		UserID:    e.UserID,
		Date:      e.Date,
		Status:    string(e.Status),
		Note:      e.Note,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		UpdatedAt: e.UpdatedAt.Format(time.RFC3339),
	}
}

// UpsertEntryRequest sets or updates a day's status.
type UpsertEntryRequest struct {
	Date      string  `json:"date"`
	Status    string  `json:"status"`
	Note      *string `json:"note"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
}

// AdminUpsertEntryRequest is UpsertEntryRequest for an arbitrary user.
type AdminUpsertEntryRequest struct {
	UserID string `json:"userId"`
	UpsertEntryRequest
}

// =============================================================================
// TEAM VIEW
// =============================================================================

// DayCellDTO is one user's resolved status for one date.
type DayCellDTO struct {
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

// MemberCalendarDTO is one row of the team month view.
type MemberCalendarDTO struct {
	User UserRefDTO            `json:"user"`
	Role string                `json:"role"`
	Days map[string]DayCellDTO `json:"days"`
}

// TeamMonthDTO is the aggregated month view.
type TeamMonthDTO struct {
	Month     string              `json:"month"`
	StartDate string              `json:"startDate"`
	EndDate   string              `json:"endDate"`
	Today     string              `json:"today"`
	Holidays  []HolidayDTO        `json:"holidays"`
	Team      []MemberCalendarDTO `json:"team"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayDTO represents a company holiday.
type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

// CreateHolidayRequest adds a holiday (admin).
type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// =============================================================================
// SCHEDULE MATCHER
// =============================================================================

// MatchPreviewRequest asks for a dry-run alignment with a favorite.
type MatchPreviewRequest struct {
	FavoriteUserID string `json:"favoriteUserId"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
}

// MatchPreviewDateDTO is one classified candidate date.
type MatchPreviewDateDTO struct {
	Date           string `json:"date"`
	Classification string `json:"classification"`
	FavoriteStatus string `json:"favoriteStatus"`
	UserStatus     string `json:"userStatus"`
	CanOverride    bool   `json:"canOverride"`
	Reason         string `json:"reason,omitempty"`
}

// MatchPreviewResponse is the preview endpoint output.
type MatchPreviewResponse struct {
	FavoriteUser UserRefDTO            `json:"favoriteUser"`
	Preview      []MatchPreviewDateDTO `json:"preview"`
	LastUpdated  *string               `json:"lastUpdated"`
}

// MatchApplyRequest confirms an alignment for specific dates.
type MatchApplyRequest struct {
	FavoriteUserID string   `json:"favoriteUserId"`
	Dates          []string `json:"dates"`
	OverrideLeave  bool     `json:"overrideLeave"`
}

// MatchDateResultDTO is one per-date apply outcome.
type MatchDateResultDTO struct {
	Date    string `json:"date"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// MatchApplyResponse aggregates an apply batch.
type MatchApplyResponse struct {
	Processed int                  `json:"processed"`
	Skipped   int                  `json:"skipped"`
	Results   []MatchDateResultDTO `json:"results"`
}

// =============================================================================
// FAVORITES & STATS
// =============================================================================

// ToggleFavoriteResponse reports the action taken and the new list.
type ToggleFavoriteResponse struct {
	Action    string   `json:"action"` // "added" or "removed"
	Favorites []string `json:"favorites"`
}

// RangeStatsDTO is the stats summary payload.
type RangeStatsDTO struct {
	UserID      string `json:"userId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	OfficeDays  int    `json:"officeDays"`
	LeaveDays   int    `json:"leaveDays"`
	WFHDays     int    `json:"wfhDays"`
	HolidayDays int    `json:"holidayDays"`
	WeekendDays int    `json:"weekendDays"`
	WorkingDays int    `json:"workingDays"`
	OfficeRate  string `json:"officeRate"` // percentage, one decimal place
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
