/*
schedule.go - Schedule-alignment endpoints

PURPOSE:
  HTTP surface of the schedule matcher. Preview is a read-only dry run;
  apply confirms a batch of dates after a staleness check.

ENDPOINTS:
  POST /api/schedule/match-preview   Classify candidate dates, no writes
  POST /api/schedule/match-apply     Write office entries for chosen dates

SEE ALSO:
  - presence/matcher.go: Classification and apply semantics
  - metrics/metrics.go: Per-outcome apply counters
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/warp/presence-engine/auth"
	"github.com/warp/presence-engine/metrics"
)

// MatchPreview classifies every candidate date for aligning the caller's
// schedule with a favorite's office days.
// POST /api/schedule/match-preview
func (h *Handler) MatchPreview(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var req MatchPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.matcher.Preview(r.Context(), user.ID, user.Role,
		req.FavoriteUserID, req.StartDate, req.EndDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	preview := make([]MatchPreviewDateDTO, len(result.Dates))
	for i, d := range result.Dates {
		preview[i] = MatchPreviewDateDTO{
			Date:           d.Date,
			Classification: string(d.Classification),
			FavoriteStatus: string(d.FavoriteStatus),
			UserStatus:     string(d.UserStatus),
			CanOverride:    d.CanOverride,
			Reason:         d.Reason,
		}
	}

	var lastUpdated *string
	if result.LastUpdated != nil {
		formatted := result.LastUpdated.Format(time.RFC3339)
		lastUpdated = &formatted
	}

	writeJSON(w, http.StatusOK, MatchPreviewResponse{
		FavoriteUser: UserRefDTO{
			ID:    result.FavoriteUser.ID,
			Name:  result.FavoriteUser.Name,
			Email: result.FavoriteUser.Email,
		},
		Preview:     preview,
		LastUpdated: lastUpdated,
	})
}

// MatchApply writes office entries for the chosen dates. The whole batch is
// rejected with 409 when the favorite's schedule changed since the preview.
// POST /api/schedule/match-apply
func (h *Handler) MatchApply(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())

	var req MatchApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.matcher.Apply(r.Context(), user.ID, user.Role,
		req.FavoriteUserID, req.Dates, req.OverrideLeave)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.ObserveApply(result.Processed, result.Skipped)

	results := make([]MatchDateResultDTO, len(result.Results))
	for i, d := range result.Results {
		results[i] = MatchDateResultDTO{Date: d.Date, Success: d.Success, Message: d.Message}
	}
	writeJSON(w, http.StatusOK, MatchApplyResponse{
		Processed: result.Processed,
		Skipped:   result.Skipped,
		Results:   results,
	})
}
