package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/presence-engine/api"
	"github.com/warp/presence-engine/auth"
	"github.com/warp/presence-engine/presence"
	"github.com/warp/presence-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	router     http.Handler
	store      *sqlite.Store
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	admin, err := store.EnsureAdmin(context.Background(), "Admin", "admin@example.com", hash)
	require.NoError(t, err)
	require.NotNil(t, admin)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	handler := api.NewHandler(store, tokens)
	router := api.NewRouter(handler, []string{"*"})

	adminToken, err := tokens.Generate(*admin)
	require.NoError(t, err)

	return &testServer{router: router, store: store, adminToken: adminToken}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// register creates a member through the public endpoint and returns
// (userID, token).
func (ts *testServer) register(t *testing.T, name, email string) (string, string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[struct {
		User  struct{ ID string }
		Token string
	}](t, rec)
	return resp.User.ID, resp.Token
}

// nextWeekday returns the first weekday at least offset days from today.
func nextWeekday(offset int) string {
	d := presence.AddDays(presence.Today(), offset)
	for presence.IsWeekend(d) {
		d = presence.AddDays(d, 1)
	}
	return d
}

// =============================================================================
// AUTH TESTS
// =============================================================================

func TestAuth_RegisterLoginMe(t *testing.T) {
	ts := newTestServer(t)

	_, token := ts.register(t, "Alice", "alice@example.com")

	rec := ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		Name string
		Role string
	}](t, rec)
	assert.Equal(t, "Alice", me.Name)
	assert.Equal(t, "member", me.Role)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password1",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RegisterRejectsDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Alice", "alice@example.com")

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Impostor", "email": "alice@example.com", "password": "password1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuth_UnauthenticatedRequestsRejected(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/entries/team?month=2026-02", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_UpdateProfile(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Alice", "alice@example.com")

	rec := ts.do(t, http.MethodPut, "/api/auth/profile", token, map[string]string{"name": "Alice B"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice B", decode[struct{ Name string }](t, rec).Name)
}

// =============================================================================
// ENTRY TESTS
// =============================================================================

func TestEntries_UpsertListDelete(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Alice", "alice@example.com")
	date := nextWeekday(1)

	rec := ts.do(t, http.MethodPut, "/api/entries", token, map[string]any{
		"date": date, "status": "office", "note": "pairing day",
		"startTime": "09:00", "endTime": "17:00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entry := decode[struct {
		Date      string
		Status    string
		Note      string
		StartTime string
	}](t, rec)
	assert.Equal(t, date, entry.Date)
	assert.Equal(t, "office", entry.Status)
	assert.Equal(t, "pairing day", entry.Note)
	assert.Equal(t, "09:00", entry.StartTime)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/entries?startDate=%s&endDate=%s", date, date), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]struct{ Date string }](t, rec)
	require.Len(t, list, 1)

	rec = ts.do(t, http.MethodDelete, "/api/entries/"+date, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WFH")

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/entries?startDate=%s&endDate=%s", date, date), token, nil)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestEntries_MemberEditWindow(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Alice", "alice@example.com")

	yesterday := presence.AddDays(presence.Today(), -1)
	rec := ts.do(t, http.MethodPut, "/api/entries", token, map[string]string{
		"date": yesterday, "status": "office",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot modify past dates")

	farOut := presence.AddDays(presence.Today(), 91)
	rec = ts.do(t, http.MethodPut, "/api/entries", token, map[string]string{
		"date": farOut, "status": "office",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "within 90 days")
}

func TestEntries_WeekendAndHolidayRejected(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Alice", "alice@example.com")

	// Next Saturday.
	saturday := presence.AddDays(presence.Today(), 1)
	for !presence.IsWeekend(saturday) {
		saturday = presence.AddDays(saturday, 1)
	}
	rec := ts.do(t, http.MethodPut, "/api/entries", token, map[string]string{
		"date": saturday, "status": "office",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	holiday := nextWeekday(2)
	rec = ts.do(t, http.MethodPost, "/api/holidays", ts.adminToken, map[string]string{
		"date": holiday, "name": "Founders Day",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/entries", token, map[string]string{
		"date": holiday, "status": "office",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntries_AdminUpsertBypassesWindow(t *testing.T) {
	ts := newTestServer(t)
	aliceID, _ := ts.register(t, "Alice", "alice@example.com")

	farOut := nextWeekday(95)
	rec := ts.do(t, http.MethodPut, "/api/admin/entries", ts.adminToken, map[string]string{
		"userId": aliceID, "date": farOut, "status": "leave",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPut, "/api/admin/entries", ts.adminToken, map[string]string{
		"userId": "ghost", "date": farOut, "status": "leave",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/admin/entries/"+aliceID+"/"+farOut, ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WFH")
}

func TestEntries_TeamMonthView(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Alice", "alice@example.com")
	date := nextWeekday(1)

	rec := ts.do(t, http.MethodPut, "/api/entries", token, map[string]string{
		"date": date, "status": "office",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	month := date[:7]
	rec = ts.do(t, http.MethodGet, "/api/entries/team?month="+month, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[struct {
		Month string
		Team  []struct {
			User struct{ Name string }
			Days map[string]struct{ Status string }
		}
	}](t, rec)
	assert.Equal(t, month, view.Month)
	require.Len(t, view.Team, 2, "admin and alice")

	var alice map[string]struct{ Status string }
	for _, row := range view.Team {
		if row.User.Name == "Alice" {
			alice = row.Days
		}
	}
	require.NotNil(t, alice)
	assert.Equal(t, "office", alice[date].Status)

	rec = ts.do(t, http.MethodGet, "/api/entries/team?month=2026", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// FAVORITE TESTS
// =============================================================================

func TestFavorites_ToggleAndList(t *testing.T) {
	ts := newTestServer(t)
	aliceID, aliceToken := ts.register(t, "Alice", "alice@example.com")
	bobID, _ := ts.register(t, "Bob", "bob@example.com")

	rec := ts.do(t, http.MethodPost, "/api/users/favorites/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	toggle := decode[struct {
		Action    string
		Favorites []string
	}](t, rec)
	assert.Equal(t, "added", toggle.Action)
	assert.Equal(t, []string{bobID}, toggle.Favorites)

	rec = ts.do(t, http.MethodGet, "/api/users/favorites", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]struct{ Name string }](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Bob", list[0].Name)

	rec = ts.do(t, http.MethodPost, "/api/users/favorites/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "removed", decode[struct{ Action string }](t, rec).Action)

	rec = ts.do(t, http.MethodPost, "/api/users/favorites/"+aliceID, aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "self-favorite")

	rec = ts.do(t, http.MethodPost, "/api/users/favorites/ghost", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// MATCHER TESTS
// =============================================================================

func TestMatcher_PreviewAndApply(t *testing.T) {
	ts := newTestServer(t)
	_, aliceToken := ts.register(t, "Alice", "alice@example.com")
	bobID, bobToken := ts.register(t, "Bob", "bob@example.com")

	d1, d2 := nextWeekday(1), nextWeekday(8)
	for _, d := range []string{d1, d2} {
		rec := ts.do(t, http.MethodPut, "/api/entries", bobToken, map[string]string{
			"date": d, "status": "office",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := ts.do(t, http.MethodPost, "/api/schedule/match-preview", aliceToken, map[string]string{
		"favoriteUserId": bobID, "startDate": d1, "endDate": d2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[struct {
		FavoriteUser struct{ Name string }
		Preview      []struct {
			Date           string
			Classification string
		}
		LastUpdated *string
	}](t, rec)
	assert.Equal(t, "Bob", preview.FavoriteUser.Name)
	require.Len(t, preview.Preview, 2)
	assert.Equal(t, "will_be_added", preview.Preview[0].Classification)
	require.NotNil(t, preview.LastUpdated)

	rec = ts.do(t, http.MethodPost, "/api/schedule/match-apply", aliceToken, map[string]any{
		"favoriteUserId": bobID, "dates": []string{d1, d2},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	apply := decode[struct {
		Processed int
		Skipped   int
	}](t, rec)
	assert.Equal(t, 2, apply.Processed)
	assert.Equal(t, 0, apply.Skipped)
}

func TestMatcher_StaleScheduleReturns409(t *testing.T) {
	// GIVEN: Bob flipped one previewed date to leave before Alice confirmed
	// WHEN: Alice applies
	// THEN: 409 with the review message and nothing written

	ts := newTestServer(t)
	_, aliceToken := ts.register(t, "Alice", "alice@example.com")
	bobID, bobToken := ts.register(t, "Bob", "bob@example.com")

	date := nextWeekday(1)
	rec := ts.do(t, http.MethodPut, "/api/entries", bobToken, map[string]string{
		"date": date, "status": "office",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/entries", bobToken, map[string]string{
		"date": date, "status": "leave",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/schedule/match-apply", aliceToken, map[string]any{
		"favoriteUserId": bobID, "dates": []string{date},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Schedule has changed. Please review again.")

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/entries?startDate=%s&endDate=%s", date, date), aliceToken, nil)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

// =============================================================================
// HOLIDAY TESTS
// =============================================================================

func TestHolidays_AdminOnlyWrites(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Alice", "alice@example.com")
	date := nextWeekday(3)

	rec := ts.do(t, http.MethodPost, "/api/holidays", token, map[string]string{
		"date": date, "name": "Founders Day",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code, "members cannot create holidays")

	rec = ts.do(t, http.MethodPost, "/api/holidays", ts.adminToken, map[string]string{
		"date": date, "name": "Founders Day",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[struct{ ID string }](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/holidays", ts.adminToken, map[string]string{
		"date": date, "name": "Duplicate",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/holidays", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Founders Day")

	rec = ts.do(t, http.MethodDelete, "/api/holidays/"+created.ID, ts.adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/holidays/"+created.ID, ts.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// ADMIN USER TESTS
// =============================================================================

func TestAdminUsers_CRUD(t *testing.T) {
	ts := newTestServer(t)
	aliceID, aliceToken := ts.register(t, "Alice", "alice@example.com")

	rec := ts.do(t, http.MethodGet, "/api/admin/users", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/users", ts.adminToken, map[string]string{
		"name": "Carol", "email": "carol@example.com", "password": "password1", "role": "admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "admin", decode[struct{ Role string }](t, rec).Role)

	rec = ts.do(t, http.MethodPut, "/api/admin/users/"+aliceID, ts.adminToken, map[string]any{
		"isActive": false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Deactivation takes effect immediately.
	rec = ts.do(t, http.MethodGet, "/api/auth/me", aliceToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/admin/users/"+aliceID+"/reset-password", ts.adminToken, map[string]string{
		"password": "newpassword",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/admin/users/"+aliceID, ts.adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/admin/users", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "alice@example.com")
}

// =============================================================================
// STATS & EXPORT TESTS
// =============================================================================

func TestStats_Summary(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Alice", "alice@example.com")
	date := nextWeekday(1)

	rec := ts.do(t, http.MethodPut, "/api/entries", token, map[string]string{
		"date": date, "status": "office",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet,
		fmt.Sprintf("/api/stats/summary?startDate=%s&endDate=%s", date, date), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decode[struct {
		OfficeDays  int
		WorkingDays int
		OfficeRate  string
	}](t, rec)
	assert.Equal(t, 1, stats.OfficeDays)
	assert.Equal(t, 1, stats.WorkingDays)
	assert.Equal(t, "100.0", stats.OfficeRate)
}

func TestExportICS(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Alice", "alice@example.com")
	date := nextWeekday(1)

	rec := ts.do(t, http.MethodPut, "/api/entries", token, map[string]string{
		"date": date, "status": "office", "startTime": "09:00", "endTime": "17:00",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet,
		fmt.Sprintf("/api/entries/export.ics?startDate=%s&endDate=%s", date, date), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, rec.Body.String(), "Office (09:00-17:00)")
}
