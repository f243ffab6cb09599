package hos_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moenga-git/ELD-VO/internal/hos"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return loc
}

// 2026-11-01 is 25 hours long in Chicago, 2026-03-08 is 23.
func TestDayLength_FollowsZoneOffsetChanges(t *testing.T) {
	loc := chicago(t)
	cases := map[string]struct {
		day   time.Time
		hours float64
	}{
		"fall back":    {time.Date(2026, 11, 1, 0, 0, 0, 0, loc), 25},
		"spring ahead": {time.Date(2026, 3, 8, 0, 0, 0, 0, loc), 23},
		"regular day":  {time.Date(2026, 6, 15, 0, 0, 0, 0, loc), 24},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			next := tc.day.AddDate(0, 0, 1)
			off := []hos.DutyEntry{entry(tc.day, next, hos.OffDuty)}

			grid, diag, err := hos.BuildGrid(tc.day, off, 60)
			require.NoError(t, err)
			assert.Len(t, grid, int(tc.hours))
			assert.Empty(t, diag.Gaps)
			assert.True(t, grid[len(grid)-1].Start.Add(time.Hour).Equal(next), "last bucket ends at the next midnight")

			totals, err := hos.ComputeDailyTotals(tc.day, off)
			require.NoError(t, err)
			assert.InDelta(t, tc.hours, totals.OffDutyHours, 1e-9)

			placeholder := hos.PlaceholderDay(tc.day, loc)
			require.Len(t, placeholder.Entries, 1)
			assert.InDelta(t, tc.hours, placeholder.Entries[0].Hours(), 1e-9)
		})
	}
}

func TestSplitAtMidnight_FallBackDay(t *testing.T) {
	loc := chicago(t)
	start := time.Date(2026, 11, 1, 20, 0, 0, 0, loc)
	e := hos.DutyEntry{Start: start, End: start.Add(8 * time.Hour), Status: hos.OffDuty}

	got := hos.SplitAtMidnight([]hos.DutyEntry{e}, loc)

	require.Len(t, got, 2)
	midnight := time.Date(2026, 11, 2, 0, 0, 0, 0, loc)
	assert.True(t, got[0].End.Equal(midnight))
	assert.True(t, got[1].Start.Equal(midnight))
	assert.InDelta(t, 4.0, got[0].Hours(), 1e-9)
	assert.InDelta(t, 4.0, got[1].Hours(), 1e-9)
}

func TestSplitAtMidnight_SpringForwardDay(t *testing.T) {
	loc := chicago(t)
	start := time.Date(2026, 3, 7, 22, 0, 0, 0, loc)
	e := hos.DutyEntry{Start: start, End: start.Add(28 * time.Hour), Status: hos.Sleeper}

	got := hos.SplitAtMidnight([]hos.DutyEntry{e}, loc)

	require.Len(t, got, 3)
	assert.InDelta(t, 2.0, got[0].Hours(), 1e-9)
	assert.InDelta(t, 23.0, got[1].Hours(), 1e-9)
	assert.InDelta(t, 3.0, got[2].Hours(), 1e-9)
	for _, seg := range got[1:] {
		assert.Equal(t, 0, seg.Start.In(loc).Hour(), "segments start at local midnight")
	}
}

func TestAggregate_AcrossFallBack(t *testing.T) {
	loc := chicago(t)
	from := time.Date(2026, 10, 31, 0, 0, 0, 0, loc)
	to := time.Date(2026, 11, 3, 0, 0, 0, 0, loc)
	entries := hos.SplitAtMidnight([]hos.DutyEntry{entry(from, to, hos.OffDuty)}, loc)

	res, err := hos.Aggregate(hos.PartitionByDay(entries, loc), hos.Options{Location: loc})

	require.NoError(t, err)
	require.Len(t, res.Days, 3)
	for i, want := range []int{24, 25, 24} {
		assert.Len(t, res.Days[i].Grid, want)
		assert.InDelta(t, float64(want), res.Days[i].Totals.OffDutyHours, 1e-9)
		assert.Empty(t, res.Days[i].Diagnostics.Gaps)
	}
}
