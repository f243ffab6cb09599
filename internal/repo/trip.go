// Package repo is the Postgres persistence layer: trips in trip.go, their
// routed legs and duty entries in plan.go. It holds SQL and row mapping only.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/moenga-git/ELD-VO/internal/domain"
)

// db is satisfied by *pgxpool.Pool and pgx.Tx. Integration tests pass a
// transaction that is rolled back on cleanup; Begin on a pgx.Tx opens a
// savepoint, so PlanRepo.Replace nests inside it.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TripRepo stores trip headers. Legs and duty entries live in PlanRepo.
type TripRepo interface {
	// Create inserts trip; the ID and timestamps come back from the database.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID fails with domain.ErrNotFound for an unknown id.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListPaged returns one page of trips ordered by start_time descending,
	// plus the total number of matching trips. An empty subject matches all trips.
	ListPaged(ctx context.Context, subject string, p domain.PaginationParams) ([]domain.Trip, int, error)

	// Update rewrites the trip's inputs and route totals. The owner is never
	// changed. Fails with domain.ErrNotFound for an unknown id.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip and, by cascade, its legs and duty entries.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgTripRepo struct {
	db db
}

// NewTripRepo returns a TripRepo over a pool or transaction.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, driver_subject, start_time,
		start_lat, start_lng, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
		cycle_hours_used, distance_miles, duration_minutes, created_at, updated_at`

func tripArgs(trip domain.Trip) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":               trip.ID,
		"driver_subject":   trip.DriverSubject,
		"start_time":       trip.StartTime,
		"start_lat":        trip.Start.Lat,
		"start_lng":        trip.Start.Lng,
		"pickup_lat":       trip.Pickup.Lat,
		"pickup_lng":       trip.Pickup.Lng,
		"dropoff_lat":      trip.Dropoff.Lat,
		"dropoff_lng":      trip.Dropoff.Lng,
		"cycle_hours_used": trip.CycleHoursUsed,
		"distance_miles":   trip.DistanceMiles,
		"duration_minutes": trip.DurationMinutes,
	}
}

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (driver_subject, start_time,
			start_lat, start_lng, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			cycle_hours_used, distance_miles, duration_minutes)
		VALUES (@driver_subject, @start_time,
			@start_lat, @start_lng, @pickup_lat, @pickup_lng, @dropoff_lat, @dropoff_lng,
			@cycle_hours_used, @distance_miles, @duration_minutes)
		RETURNING ` + tripColumns

	saved, err := scanTrip(r.db.QueryRow(ctx, q, tripArgs(trip)))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return saved, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`
	saved, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return saved, nil
}

// ListPaged returns one page of trips, most recent start first.
func (r *pgTripRepo) ListPaged(ctx context.Context, subject string, p domain.PaginationParams) ([]domain.Trip, int, error) {
	const countQ = `
		SELECT count(*) FROM trips
		WHERE @subject = '' OR driver_subject = @subject`
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE @subject = '' OR driver_subject = @subject
		ORDER BY start_time DESC, id
		LIMIT @limit OFFSET @offset`

	var total int
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"subject": subject}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: count: %w", err)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"subject": subject,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListPaged: rows: %w", err)
	}

	return trips, total, nil
}

func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET start_time       = @start_time,
		    start_lat        = @start_lat,
		    start_lng        = @start_lng,
		    pickup_lat       = @pickup_lat,
		    pickup_lng       = @pickup_lng,
		    dropoff_lat      = @dropoff_lat,
		    dropoff_lng      = @dropoff_lng,
		    cycle_hours_used = @cycle_hours_used,
		    distance_miles   = @distance_miles,
		    duration_minutes = @duration_minutes,
		    updated_at       = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	saved, err := scanTrip(r.db.QueryRow(ctx, q, tripArgs(trip)))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return saved, nil
}

func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trips WHERE id = @id`, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is pgx.Row or pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip reads tripColumns in order. Start times come back in UTC.
func scanTrip(s scanner) (domain.Trip, error) {
	var t domain.Trip
	var id pgtype.UUID
	err := s.Scan(&id, &t.DriverSubject, &t.StartTime,
		&t.Start.Lat, &t.Start.Lng, &t.Pickup.Lat, &t.Pickup.Lng, &t.Dropoff.Lat, &t.Dropoff.Lng,
		&t.CycleHoursUsed, &t.DistanceMiles, &t.DurationMinutes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartTime = t.StartTime.UTC()
	return t, nil
}
