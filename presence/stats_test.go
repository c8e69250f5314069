package presence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/presence-engine/presence"
	"github.com/warp/presence-engine/store"
)

func TestSummarize_CountsByEffectiveStatus(t *testing.T) {
	// GIVEN: The first full week of February 2026 (Mon 02 .. Sun 08) with a
	//        holiday on Wednesday, office Mon/Tue, leave Thursday
	// WHEN: Summarizing the week
	// THEN: 2 office, 1 leave, 1 wfh (Friday), 1 holiday, 2 weekend days,
	//       and an office rate of 2/4 = 50.0%

	mem := store.NewMemory()
	ctx := context.Background()

	mem.PutHoliday(presence.Holiday{Date: "2026-02-04", Name: "Founders Day"})
	for _, d := range []string{"2026-02-02", "2026-02-03"} {
		_, err := mem.Upsert(ctx, presence.UpsertParams{UserID: "alice", Date: d, Status: presence.StatusOffice})
		require.NoError(t, err)
	}
	_, err := mem.Upsert(ctx, presence.UpsertParams{UserID: "alice", Date: "2026-02-05", Status: presence.StatusLeave})
	require.NoError(t, err)

	stats, err := presence.NewStatistician(mem, mem).Summarize(ctx, "alice", "2026-02-02", "2026-02-08")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.OfficeDays)
	assert.Equal(t, 1, stats.LeaveDays)
	assert.Equal(t, 1, stats.WFHDays)
	assert.Equal(t, 1, stats.HolidayDays)
	assert.Equal(t, 2, stats.WeekendDays)
	assert.Equal(t, 4, stats.WorkingDays)
	assert.Equal(t, "50.0", stats.OfficeRate.StringFixed(1))
}

func TestSummarize_EmptyWorkingRange(t *testing.T) {
	// A weekend-only range has no working days; the rate stays zero instead
	// of dividing by zero.
	mem := store.NewMemory()

	stats, err := presence.NewStatistician(mem, mem).Summarize(context.Background(), "alice", "2026-02-07", "2026-02-08")
	require.NoError(t, err)

	assert.Equal(t, 0, stats.WorkingDays)
	assert.True(t, stats.OfficeRate.IsZero())
}

func TestSummarize_RejectsBadRange(t *testing.T) {
	mem := store.NewMemory()
	stat := presence.NewStatistician(mem, mem)
	ctx := context.Background()

	_, err := stat.Summarize(ctx, "alice", "bad", "2026-02-08")
	assert.True(t, presence.IsValidation(err))

	_, err = stat.Summarize(ctx, "alice", "2026-02-08", "2026-02-02")
	assert.True(t, presence.IsValidation(err))
}
