package sqlite_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/presence-engine/presence"
	"github.com/warp/presence-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func saveUser(t *testing.T, store *sqlite.Store, id, name string) {
	t.Helper()
	err := store.SaveUser(context.Background(), presence.User{
		ID: id, Name: name, Email: id + "@example.com",
		Role: presence.RoleMember, IsActive: true, PasswordHash: "hash",
	})
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }

// =============================================================================
// ENTRY TESTS
// =============================================================================

func TestEntryUpsert_InsertThenReplace(t *testing.T) {
	// GIVEN: An office entry with a note and time window
	// WHEN: Upserting the same (user, date) again as plain leave
	// THEN: The row is replaced in place; same ID, cleared annotations

	store := newTestStore(t)
	ctx := context.Background()
	saveUser(t, store, "alice", "Alice")

	first, err := store.Upsert(ctx, presence.UpsertParams{
		UserID: "alice", Date: "2026-02-03", Status: presence.StatusOffice,
		Note: strPtr("sprint review"), StartTime: strPtr("09:00"), EndTime: strPtr("17:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "sprint review", first.Note)
	assert.Equal(t, "09:00", first.StartTime)

	second, err := store.Upsert(ctx, presence.UpsertParams{
		UserID: "alice", Date: "2026-02-03", Status: presence.StatusLeave,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "replace keeps the row identity")
	assert.Equal(t, presence.StatusLeave, second.Status)
	assert.Empty(t, second.Note, "replace clears omitted fields")
	assert.Empty(t, second.StartTime)
	assert.Empty(t, second.EndTime)

	entries, err := store.FindRange(ctx, "alice", "2026-02-01", "2026-02-28")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "one row per (user, date)")
}

func TestEntryUpsert_ValidatesBeforeWrite(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Upsert(context.Background(), presence.UpsertParams{
		UserID: "alice", Date: "2026-02-03", Status: "remote",
	})
	assert.True(t, presence.IsValidation(err))
}

func TestEntryDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveUser(t, store, "alice", "Alice")

	_, err := store.Upsert(ctx, presence.UpsertParams{UserID: "alice", Date: "2026-02-03", Status: presence.StatusOffice})
	require.NoError(t, err)

	existed, err := store.Delete(ctx, "alice", "2026-02-03")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.Delete(ctx, "alice", "2026-02-03")
	require.NoError(t, err)
	assert.False(t, existed, "delete is idempotent")
}

func TestEntryFindRange_OrderedByDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveUser(t, store, "alice", "Alice")

	for _, d := range []string{"2026-02-10", "2026-02-03", "2026-02-06"} {
		_, err := store.Upsert(ctx, presence.UpsertParams{UserID: "alice", Date: d, Status: presence.StatusOffice})
		require.NoError(t, err)
	}

	entries, err := store.FindRange(ctx, "alice", "2026-02-01", "2026-02-28")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "2026-02-03", entries[0].Date)
	assert.Equal(t, "2026-02-06", entries[1].Date)
	assert.Equal(t, "2026-02-10", entries[2].Date)
}

func TestEntryFindForUsersAndDates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveUser(t, store, "alice", "Alice")
	saveUser(t, store, "bob", "Bob")
	saveUser(t, store, "carol", "Carol")

	for _, u := range []string{"alice", "bob", "carol"} {
		_, err := store.Upsert(ctx, presence.UpsertParams{UserID: u, Date: "2026-02-03", Status: presence.StatusOffice})
		require.NoError(t, err)
	}

	entries, err := store.FindForUsers(ctx, []string{"alice", "bob"}, "2026-02-01", "2026-02-28")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = store.FindForUsers(ctx, nil, "2026-02-01", "2026-02-28")
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = store.FindDates(ctx, "alice", []string{"2026-02-03", "2026-02-04"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2026-02-03", entries[0].Date)
}

// =============================================================================
// USER TESTS
// =============================================================================

func TestSaveUser_DuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveUser(t, store, "alice", "Alice")

	err := store.SaveUser(ctx, presence.User{
		ID: "alice2", Name: "Other Alice", Email: "alice@example.com",
		Role: presence.RoleMember, IsActive: true,
	})
	assert.ErrorIs(t, err, presence.ErrEmailTaken)
}

func TestFindByID_HidesPasswordHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveUser(t, store, "alice", "Alice")

	u, err := store.FindByID(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Empty(t, u.PasswordHash)

	u, err = store.FindByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, u)

	withPw, err := store.FindByEmailWithPassword(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, withPw)
	assert.Equal(t, "hash", withPw.PasswordHash)
}

func TestUpdateUser_PartialAndMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveUser(t, store, "alice", "Alice")

	newName := "Alice B"
	inactive := false
	updated, err := store.UpdateUser(ctx, "alice", sqlite.UserUpdate{Name: &newName, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "alice@example.com", updated.Email, "untouched fields survive")

	_, err = store.UpdateUser(ctx, "ghost", sqlite.UserUpdate{Name: &newName})
	assert.True(t, presence.IsNotFound(err))
}

func TestUpdateUser_ReturnsOwnWrite(t *testing.T) {
	// Concurrent updates to the same user: each call's returned snapshot
	// must reflect that call's write, never a later writer's.
	store := newTestStore(t)
	ctx := context.Background()
	saveUser(t, store, "alice", "Alice")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("Alice %d", i)
			updated, err := store.UpdateUser(ctx, "alice", sqlite.UserUpdate{Name: &name})
			if assert.NoError(t, err) {
				assert.Equal(t, name, updated.Name)
			}
		}(i)
	}
	wg.Wait()
}

func TestDeleteUser_CascadesEntriesAndFavorites(t *testing.T) {
	// GIVEN: Bob has entries, favorites Alice, and is favorited by Alice
	// WHEN: Bob is deleted
	// THEN: His entries and both favorite directions disappear

	store := newTestStore(t)
	ctx := context.Background()
	saveUser(t, store, "alice", "Alice")
	saveUser(t, store, "bob", "Bob")

	_, err := store.Upsert(ctx, presence.UpsertParams{UserID: "bob", Date: "2026-02-03", Status: presence.StatusOffice})
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, "bob", "alice"))
	require.NoError(t, store.Add(ctx, "alice", "bob"))

	require.NoError(t, store.DeleteUser(ctx, "bob"))

	u, err := store.FindByID(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, u)

	entries, err := store.FindRange(ctx, "bob", "2026-01-01", "2026-12-31")
	require.NoError(t, err)
	assert.Empty(t, entries)

	favs, err := store.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, favs, "reverse favorite link removed too")

	err = store.DeleteUser(ctx, "bob")
	assert.True(t, presence.IsNotFound(err))
}

func TestEnsureAdmin_OnlySeedsEmptyDatabase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	admin, err := store.EnsureAdmin(ctx, "Admin", "admin@example.com", "hash")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, presence.RoleAdmin, admin.Role)

	again, err := store.EnsureAdmin(ctx, "Admin", "admin@example.com", "hash")
	require.NoError(t, err)
	assert.Nil(t, again, "populated database is left alone")
}

// =============================================================================
// HOLIDAY TESTS
// =============================================================================

func TestHolidays_SaveQueryDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.SaveHoliday(ctx, "2026-12-25", "Christmas")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = store.SaveHoliday(ctx, "2026-12-25", "Also Christmas")
	assert.ErrorIs(t, err, presence.ErrDuplicateHoliday)

	_, err = store.SaveHoliday(ctx, "2026-01-01", "New Year")
	require.NoError(t, err)

	holidays, err := store.FindInRange(ctx, "2026-01-01", "2026-12-31")
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, "2026-01-01", holidays[0].Date, "ordered by date")

	require.NoError(t, store.DeleteHoliday(ctx, created.ID))
	err = store.DeleteHoliday(ctx, created.ID)
	assert.True(t, presence.IsNotFound(err))
}

// =============================================================================
// FAVORITE TESTS
// =============================================================================

func TestFavorites_AddRemoveList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveUser(t, store, "alice", "Alice")
	saveUser(t, store, "bob", "Bob")

	require.NoError(t, store.Add(ctx, "alice", "bob"))
	require.NoError(t, store.Add(ctx, "alice", "bob"), "re-adding is a no-op")

	exists, err := store.Exists(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, exists)

	ids, err := store.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids)

	require.NoError(t, store.Remove(ctx, "alice", "bob"))
	exists, err = store.Exists(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, exists)
}

// =============================================================================
// CLOCK TESTS
// =============================================================================

func TestSetNow_PinsTimestamps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveUser(t, store, "alice", "Alice")

	stamp := time.Date(2026, time.January, 15, 8, 0, 0, 0, time.UTC)
	store.SetNow(func() time.Time { return stamp })

	entry, err := store.Upsert(ctx, presence.UpsertParams{UserID: "alice", Date: "2026-02-03", Status: presence.StatusOffice})
	require.NoError(t, err)
	assert.Equal(t, stamp, entry.UpdatedAt)
	assert.Equal(t, stamp, entry.CreatedAt)
}
