package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/hos"
	"github.com/moenga-git/ELD-VO/internal/service"
)

func TestExportService_Export_OneRowPerEntry(t *testing.T) {
	records := []domain.DutyRecord{
		{DayIndex: 0, DutyEntry: hos.DutyEntry{
			Start: logDay.Add(8 * time.Hour), End: logDay.Add(10*time.Hour + 20*time.Minute),
			Status: hos.Driving, Note: "Driving leg 1", RuleApplied: hos.RuleDriving,
		}},
		{DayIndex: 1, DutyEntry: hos.DutyEntry{
			Start: logDay.Add(24 * time.Hour), End: logDay.Add(25 * time.Hour),
			Status: hos.OnDutyNotDriving, Note: "Dropoff",
		}},
	}
	svc := service.NewExportService(logTripRepo(12.5), entriesRepo(records))

	rows, err := svc.Export(context.Background(), fixedID)

	require.NoError(t, err)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, fixedID.String(), r.TripID)
	assert.True(t, r.TripStart.Equal(logDay.Add(8*time.Hour)))
	assert.Equal(t, 12.5, r.CycleHoursUsed)
	assert.Equal(t, 0, r.DayIndex)
	assert.Equal(t, "DRIVING", r.Status)
	assert.Equal(t, 2.33, r.Hours, "hours are rounded to two decimals")
	assert.Equal(t, "Driving leg 1", r.Note)
	assert.Equal(t, hos.RuleDriving, r.RuleApplied)

	assert.Equal(t, 1, rows[1].DayIndex)
	assert.Equal(t, "ON_DUTY_NOT_DRIVING", rows[1].Status)
	assert.Empty(t, rows[1].RuleApplied)
}

func TestExportService_Export_NoEntries(t *testing.T) {
	svc := service.NewExportService(logTripRepo(0), entriesRepo([]domain.DutyRecord{}))

	rows, err := svc.Export(context.Background(), fixedID)

	require.NoError(t, err)
	assert.NotNil(t, rows, "should be empty slice, not nil")
	assert.Empty(t, rows)
}

func TestExportService_Export_TripNotFound(t *testing.T) {
	trips := &mockTripRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Trip, error) { return domain.Trip{}, domain.ErrNotFound },
	}
	svc := service.NewExportService(trips, entriesRepo(nil))

	_, err := svc.Export(context.Background(), fixedID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExportService_Export_RepoError(t *testing.T) {
	dbErr := errors.New("connection reset")
	plans := &mockPlanRepo{
		listEntries: func(context.Context, uuid.UUID) ([]domain.DutyRecord, error) { return nil, dbErr },
	}
	svc := service.NewExportService(logTripRepo(0), plans)

	_, err := svc.Export(context.Background(), fixedID)

	assert.ErrorIs(t, err, dbErr)
}
