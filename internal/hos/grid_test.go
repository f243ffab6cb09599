package hos_test

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moenga-git/ELD-VO/internal/hos"
)

// ---- helpers ---------------------------------------------------------------

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// at returns testDay at hh:mm. Hour 24 is the following midnight.
func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func entry(from, to time.Time, s hos.DutyStatus) hos.DutyEntry {
	return hos.DutyEntry{Start: from, End: to, Status: s}
}

// scenarioDay is a fully covered day with a break and an 11.5-hour drive.
func scenarioDay() []hos.DutyEntry {
	return []hos.DutyEntry{
		entry(at(0, 0), at(6, 0), hos.OffDuty),
		entry(at(6, 0), at(14, 0), hos.Driving),
		entry(at(14, 0), at(14, 30), hos.OffDuty),
		entry(at(14, 30), at(18, 0), hos.Driving),
		entry(at(18, 0), at(24, 0), hos.OnDutyNotDriving),
	}
}

func statuses(grid []hos.Bucket) []hos.DutyStatus {
	out := make([]hos.DutyStatus, len(grid))
	for i, b := range grid {
		out[i] = b.Status
	}
	return out
}

// ---- BuildGrid -------------------------------------------------------------

func TestBuildGrid_Scenario(t *testing.T) {
	grid, diag, err := hos.BuildGrid(testDay, scenarioDay(), 60)

	require.NoError(t, err)
	require.Len(t, grid, 24)
	assert.True(t, diag.OK(), "fully covered day should have no diagnostics")

	for h := 0; h < 6; h++ {
		assert.Equal(t, hos.OffDuty, grid[h].Status, "hour %d", h)
	}
	for h := 6; h <= 13; h++ {
		assert.Equal(t, hos.Driving, grid[h].Status, "hour %d", h)
	}
	assert.Equal(t, hos.OffDuty, grid[14].Status)
	for h := 15; h <= 17; h++ {
		assert.Equal(t, hos.Driving, grid[h].Status, "hour %d", h)
	}
	for h := 18; h <= 23; h++ {
		assert.Equal(t, hos.OnDutyNotDriving, grid[h].Status, "hour %d", h)
	}
	assert.True(t, grid[7].Start.Equal(at(7, 0)), "bucket start should be day start + i*resolution")
}

func TestBuildGrid_FullDayOffDuty(t *testing.T) {
	grid, diag, err := hos.BuildGrid(testDay, []hos.DutyEntry{entry(at(0, 0), at(24, 0), hos.OffDuty)}, 60)

	require.NoError(t, err)
	require.Len(t, grid, 24)
	assert.True(t, diag.OK())
	for _, b := range grid {
		assert.Equal(t, hos.OffDuty, b.Status)
	}
}

func TestBuildGrid_Resolutions(t *testing.T) {
	cases := []struct {
		resolution int
		buckets    int
	}{
		{0, 24}, // zero selects the default
		{60, 24},
		{30, 48},
		{15, 96},
		{1440, 1},
	}
	for _, tc := range cases {
		grid, _, err := hos.BuildGrid(testDay, scenarioDay(), tc.resolution)
		require.NoError(t, err, "resolution %d", tc.resolution)
		assert.Len(t, grid, tc.buckets, "resolution %d", tc.resolution)
	}
}

func TestBuildGrid_HalfHourCapturesBreak(t *testing.T) {
	grid, _, err := hos.BuildGrid(testDay, scenarioDay(), 30)

	require.NoError(t, err)
	assert.Equal(t, hos.OffDuty, grid[28].Status, "14:00 bucket")
	assert.Equal(t, hos.Driving, grid[29].Status, "14:30 bucket")
}

func TestBuildGrid_InvalidResolution(t *testing.T) {
	for _, res := range []int{-60, 7, 2880} {
		_, _, err := hos.BuildGrid(testDay, scenarioDay(), res)

		require.Error(t, err, "resolution %d", res)
		assert.ErrorIs(t, err, hos.ErrValidation)
		var ve *hos.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, hos.InvalidResolution, ve.Kind)
	}
}

func TestBuildGrid_InvertedInterval(t *testing.T) {
	entries := []hos.DutyEntry{entry(at(6, 0), at(6, 0), hos.Driving)}

	_, _, err := hos.BuildGrid(testDay, entries, 60)

	var ve *hos.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, hos.InvertedInterval, ve.Kind)
}

func TestBuildGrid_EntryFromAnotherDay(t *testing.T) {
	entries := []hos.DutyEntry{entry(at(-2, 0), at(1, 0), hos.OffDuty)}

	_, _, err := hos.BuildGrid(testDay, entries, 60)

	var ve *hos.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, hos.EntryOutsideDay, ve.Kind)
}

func TestBuildGrid_GapBecomesUnknown(t *testing.T) {
	entries := []hos.DutyEntry{
		entry(at(0, 0), at(8, 0), hos.OffDuty),
		entry(at(10, 0), at(24, 0), hos.OnDutyNotDriving),
	}

	grid, diag, err := hos.BuildGrid(testDay, entries, 60)

	require.NoError(t, err)
	assert.Equal(t, hos.Unknown, grid[8].Status)
	assert.Equal(t, hos.Unknown, grid[9].Status)
	assert.Equal(t, hos.OnDutyNotDriving, grid[10].Status)
	require.Len(t, diag.Gaps, 1)
	assert.True(t, diag.Gaps[0].Start.Equal(at(8, 0)))
	assert.True(t, diag.Gaps[0].End.Equal(at(10, 0)))
	assert.Empty(t, diag.Overlaps)
}

func TestBucket_JSONKeepsUnknown(t *testing.T) {
	grid, _, err := hos.BuildGrid(testDay, nil, 1440)
	require.NoError(t, err)

	b, err := json.Marshal(grid)
	require.NoError(t, err)
	var decoded []hos.Bucket
	require.NoError(t, json.Unmarshal(b, &decoded))

	require.Len(t, decoded, 1)
	assert.Equal(t, hos.Unknown, decoded[0].Status)
	assert.True(t, decoded[0].Start.Equal(testDay))

	err = json.Unmarshal([]byte(`[{"bucketStart":"2025-03-10T00:00:00Z","status":"NAPPING"}]`), &decoded)
	assert.ErrorIs(t, err, hos.ErrValidation)
}

func TestBuildGrid_EmptyDayIsAllUnknown(t *testing.T) {
	grid, diag, err := hos.BuildGrid(testDay, nil, 60)

	require.NoError(t, err)
	for _, b := range grid {
		assert.Equal(t, hos.Unknown, b.Status)
	}
	require.Len(t, diag.Gaps, 1)
	assert.True(t, diag.Gaps[0].End.Equal(at(24, 0)))
}

func TestBuildGrid_OverlapLatestStartWins(t *testing.T) {
	entries := []hos.DutyEntry{
		entry(at(0, 0), at(12, 0), hos.OffDuty),
		entry(at(9, 0), at(24, 0), hos.Driving),
	}

	grid, diag, err := hos.BuildGrid(testDay, entries, 60)

	require.NoError(t, err)
	assert.Equal(t, hos.OffDuty, grid[8].Status)
	assert.Equal(t, hos.Driving, grid[9].Status, "later-starting entry wins the overlap")
	assert.Equal(t, hos.Driving, grid[11].Status)
	require.Len(t, diag.Overlaps, 1)
	assert.True(t, diag.Overlaps[0].Start.Equal(at(9, 0)))
	assert.True(t, diag.Overlaps[0].End.Equal(at(12, 0)))
}

func TestBuildGrid_OrderIndependent(t *testing.T) {
	want, _, err := hos.BuildGrid(testDay, scenarioDay(), 15)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := scenarioDay()
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, _, err := hos.BuildGrid(testDay, shuffled, 15)

		require.NoError(t, err)
		assert.Equal(t, statuses(want), statuses(got))
	}
}

func TestBuildGrid_DoesNotMutateInput(t *testing.T) {
	entries := scenarioDay()
	entries[0], entries[4] = entries[4], entries[0]
	before := append([]hos.DutyEntry(nil), entries...)

	_, _, err := hos.BuildGrid(testDay, entries, 60)

	require.NoError(t, err)
	assert.Equal(t, before, entries)
}
