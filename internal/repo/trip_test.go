package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/repo"
	"github.com/moenga-git/ELD-VO/testutil"
)

// newTestRepos returns a TripRepo and PlanRepo sharing one transaction that
// is rolled back when the test finishes.
//
// Requires TEST_DATABASE_URL to be set; TestMain applies the migrations.
func newTestRepos(t *testing.T) (repo.TripRepo, repo.PlanRepo) {
	t.Helper()
	tx := testutil.NewTx(t)
	return repo.NewTripRepo(tx), repo.NewPlanRepo(tx)
}

// tripFixture is a Chicago to Kansas City haul via St. Louis.
func tripFixture() domain.Trip {
	return domain.Trip{
		DriverSubject:  "driver-1",
		StartTime:      time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		Start:          domain.Location{Lat: 41.8781, Lng: -87.6298},
		Pickup:         domain.Location{Lat: 38.6270, Lng: -90.1994},
		Dropoff:        domain.Location{Lat: 39.0997, Lng: -94.5786},
		CycleHoursUsed: 12.5,
	}
}

func TestTripRepo_Create(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()

	input := tripFixture()
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, input.DriverSubject, got.DriverSubject)
	assert.True(t, got.StartTime.Equal(input.StartTime), "StartTime mismatch")
	assert.Equal(t, input.Start, got.Start)
	assert.Equal(t, input.Pickup, got.Pickup)
	assert.Equal(t, input.Dropoff, got.Dropoff)
	assert.Equal(t, 12.5, got.CycleHoursUsed)
	assert.Zero(t, got.DistanceMiles, "route totals start at zero")
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestTripRepo_Create_RejectsCycleAboveLimit(t *testing.T) {
	r, _ := newTestRepos(t)

	input := tripFixture()
	input.CycleHoursUsed = 71

	_, err := r.Create(context.Background(), input)

	assert.Error(t, err, "check constraint should reject cycle hours above 70")
}

func TestTripRepo_GetByID(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	got, err := r.GetByID(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Pickup, got.Pickup)
}

func TestTripRepo_ListPaged(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()

	base := tripFixture()
	base.DriverSubject = "list-paged-driver"
	for i := 0; i < 3; i++ {
		tr := base
		tr.StartTime = base.StartTime.AddDate(0, 0, i)
		_, err := r.Create(ctx, tr)
		require.NoError(t, err)
	}
	other := tripFixture()
	other.DriverSubject = "someone-else"
	_, err := r.Create(ctx, other)
	require.NoError(t, err)

	page1, total, err := r.ListPaged(ctx, "list-paged-driver", domain.PaginationParams{Page: 1, Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page1, 2)
	assert.True(t, page1[0].StartTime.After(page1[1].StartTime), "most recent first")

	page2, _, err := r.ListPaged(ctx, "list-paged-driver", domain.PaginationParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.True(t, page2[0].StartTime.Equal(base.StartTime))

	_, all, err := r.ListPaged(ctx, "", domain.PaginationParams{Page: 1, Limit: 100})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, all, 4, "empty subject matches every trip")
}

func TestTripRepo_Update(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	created.DistanceMiles = 512.3
	created.DurationMinutes = 540
	created.CycleHoursUsed = 20

	updated, err := r.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 512.3, updated.DistanceMiles)
	assert.Equal(t, 540, updated.DurationMinutes)
	assert.Equal(t, 20.0, updated.CycleHoursUsed)
	assert.False(t, updated.UpdatedAt.IsZero())
}

func TestTripRepo_Delete(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()

	created, err := r.Create(ctx, tripFixture())
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, created.ID))

	_, err = r.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_UnknownID(t *testing.T) {
	r, _ := newTestRepos(t)
	ctx := context.Background()
	ghost := tripFixture()
	ghost.ID = uuid.New()

	ops := map[string]func() error{
		"get":    func() error { _, err := r.GetByID(ctx, ghost.ID); return err },
		"update": func() error { _, err := r.Update(ctx, ghost); return err },
		"delete": func() error { return r.Delete(ctx, ghost.ID) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(), domain.ErrNotFound)
		})
	}
}
