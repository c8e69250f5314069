/*
ical.go - iCalendar export

PURPOSE:
  Serializes the caller's resolved schedule for a range as an iCalendar
  feed, one all-day VEVENT per office or leave day plus company holidays.
  Implicit WFH days produce no event.

ENDPOINTS:
  GET /api/entries/export.ics?startDate=...&endDate=...
*/
package api

import (
	"fmt"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/warp/presence-engine/auth"
	"github.com/warp/presence-engine/presence"
)

// ExportICS renders the caller's explicit entries and the holidays in range
// as an iCalendar document.
// GET /api/entries/export.ics
func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFrom(r.Context())
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")

	if !presence.ValidDate(start) || !presence.ValidDate(end) {
		writeError(w, http.StatusBadRequest, "startDate and endDate are required (YYYY-MM-DD)", nil)
		return
	}

	entries, err := h.Store.FindRange(r.Context(), user.ID, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entries", err)
		return
	}
	holidays, err := h.Store.FindInRange(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load holidays", err)
		return
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//presence-engine//EN")

	for _, e := range entries {
		day, err := time.Parse(presence.DateLayout, e.Date)
		if err != nil {
			continue
		}
		summary := "Office"
		if e.Status == presence.StatusLeave {
			summary = "Leave"
		}
		if e.HasTimeWindow() {
			summary = fmt.Sprintf("%s (%s-%s)", summary, e.StartTime, e.EndTime)
		}

		ev := cal.AddEvent(fmt.Sprintf("%s-%s@presence-engine", e.UserID, e.Date))
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetSummary(summary)
		if e.Note != "" {
			ev.SetDescription(e.Note)
		}
		ev.SetDtStampTime(e.UpdatedAt)
	}

	for _, hol := range holidays {
		day, err := time.Parse(presence.DateLayout, hol.Date)
		if err != nil {
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("holiday-%s@presence-engine", hol.Date))
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetSummary("Holiday: " + hol.Name)
		ev.SetDtStampTime(hol.CreatedAt)
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="presence.ics"`)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, cal.Serialize())
}
