package repo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/hos"
)

func legFixtures() []domain.Leg {
	legs := []domain.Leg{
		{
			From:            domain.Location{Lat: 41.8781, Lng: -87.6298},
			To:              domain.Location{Lat: 38.6270, Lng: -90.1994},
			DistanceMiles:   297,
			DurationMinutes: 280,
			Geometry:        json.RawMessage(`{"type":"LineString","coordinates":[[-87.6298,41.8781],[-90.1994,38.627]]}`),
		},
		{
			From:            domain.Location{Lat: 38.6270, Lng: -90.1994},
			To:              domain.Location{Lat: 39.0997, Lng: -94.5786},
			DistanceMiles:   248,
			DurationMinutes: 230,
		},
	}
	domain.MarkEndpoints(legs)
	return legs
}

func recordFixtures(start time.Time) []domain.DutyRecord {
	mk := func(from, to time.Duration, s hos.DutyStatus, note string) domain.DutyRecord {
		return domain.DutyRecord{DutyEntry: hos.DutyEntry{
			Start: start.Add(from), End: start.Add(to), Status: s,
			Note: note, RuleApplied: hos.RuleDriving, Explanation: "test",
		}}
	}
	return []domain.DutyRecord{
		mk(2*time.Hour, 3*time.Hour, hos.OnDutyNotDriving, "Pickup"),
		mk(0, 2*time.Hour, hos.Driving, "Driving leg 1"),
	}
}

func TestPlanRepo_ReplaceAndList(t *testing.T) {
	trips, plans := newTestRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)

	err = plans.Replace(ctx, trip.ID, legFixtures(), recordFixtures(trip.StartTime))
	require.NoError(t, err)

	legs, err := plans.ListLegs(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, 0, legs[0].Index)
	assert.True(t, legs[0].Pickup)
	assert.True(t, legs[1].Dropoff)
	assert.Equal(t, 280, legs[0].DurationMinutes)
	assert.JSONEq(t, string(legFixtures()[0].Geometry), string(legs[0].Geometry))
	assert.Empty(t, legs[1].Geometry, "NULL geometry scans as empty")

	entries, err := plans.ListEntries(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, hos.Driving, entries[0].Status, "entries come back ordered by start")
	assert.Equal(t, "Pickup", entries[1].Note)
	assert.True(t, entries[0].Start.Equal(trip.StartTime))
	assert.NotZero(t, entries[0].ID)
}

func TestPlanRepo_ReplaceOverwrites(t *testing.T) {
	trips, plans := newTestRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)
	require.NoError(t, plans.Replace(ctx, trip.ID, legFixtures(), recordFixtures(trip.StartTime)))

	err = plans.Replace(ctx, trip.ID, legFixtures()[:1], recordFixtures(trip.StartTime)[:1])
	require.NoError(t, err)

	legs, err := plans.ListLegs(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, legs, 1)
	entries, err := plans.ListEntries(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPlanRepo_ReplaceIsAtomic(t *testing.T) {
	trips, plans := newTestRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)
	require.NoError(t, plans.Replace(ctx, trip.ID, legFixtures(), recordFixtures(trip.StartTime)))

	// An inverted interval violates the end_time > start_time check.
	bad := recordFixtures(trip.StartTime)
	bad[0].End = bad[0].Start.Add(-time.Minute)

	err = plans.Replace(ctx, trip.ID, nil, bad)
	require.Error(t, err)

	legs, err := plans.ListLegs(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, legs, 2, "failed replace must leave the previous plan intact")
}

func TestPlanRepo_DeleteTripCascades(t *testing.T) {
	trips, plans := newTestRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)
	require.NoError(t, plans.Replace(ctx, trip.ID, legFixtures(), recordFixtures(trip.StartTime)))

	require.NoError(t, trips.Delete(ctx, trip.ID))

	entries, err := plans.ListEntries(ctx, trip.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPlanRepo_ListEmpty(t *testing.T) {
	trips, plans := newTestRepos(t)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture())
	require.NoError(t, err)

	legs, err := plans.ListLegs(ctx, trip.ID)
	require.NoError(t, err)
	assert.NotNil(t, legs)
	assert.Empty(t, legs)
}
