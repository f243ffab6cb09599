package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/hos"
)

// PlanRepo persists the routed legs and generated duty entries of a trip.
// All operations are scoped by tripID.
type PlanRepo interface {
	// Replace atomically swaps a trip's legs and duty entries for the given
	// ones. Either everything is written or nothing changes.
	Replace(ctx context.Context, tripID uuid.UUID, legs []domain.Leg, entries []domain.DutyRecord) error

	// ListLegs returns the trip's legs ordered by leg index.
	ListLegs(ctx context.Context, tripID uuid.UUID) ([]domain.Leg, error)

	// ListEntries returns the trip's duty entries ordered by start time.
	ListEntries(ctx context.Context, tripID uuid.UUID) ([]domain.DutyRecord, error)
}

// pgPlanRepo is the Postgres implementation of PlanRepo.
type pgPlanRepo struct {
	db db
}

// NewPlanRepo constructs a PlanRepo backed by the provided db connection.
func NewPlanRepo(db db) PlanRepo {
	return &pgPlanRepo{db: db}
}

// Replace deletes the old plan and writes the new one in a single transaction.
// Legs go through a batch; duty entries use COPY.
func (r *pgPlanRepo) Replace(ctx context.Context, tripID uuid.UUID, legs []domain.Leg, entries []domain.DutyRecord) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM duty_entries WHERE trip_id = @trip_id`,
			pgx.NamedArgs{"trip_id": tripID}); err != nil {
			return fmt.Errorf("delete entries: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM trip_legs WHERE trip_id = @trip_id`,
			pgx.NamedArgs{"trip_id": tripID}); err != nil {
			return fmt.Errorf("delete legs: %w", err)
		}

		const insertLeg = `
			INSERT INTO trip_legs (trip_id, leg_index, start_lat, start_lng, end_lat, end_lng,
				distance_miles, duration_minutes, geometry, is_pickup, is_dropoff)
			VALUES (@trip_id, @leg_index, @start_lat, @start_lng, @end_lat, @end_lng,
				@distance_miles, @duration_minutes, @geometry, @is_pickup, @is_dropoff)`
		batch := &pgx.Batch{}
		for _, l := range legs {
			var geometry any
			if len(l.Geometry) > 0 {
				geometry = string(l.Geometry)
			}
			batch.Queue(insertLeg, pgx.NamedArgs{
				"trip_id":          tripID,
				"leg_index":        l.Index,
				"start_lat":        l.From.Lat,
				"start_lng":        l.From.Lng,
				"end_lat":          l.To.Lat,
				"end_lng":          l.To.Lng,
				"distance_miles":   l.DistanceMiles,
				"duration_minutes": l.DurationMinutes,
				"geometry":         geometry,
				"is_pickup":        l.Pickup,
				"is_dropoff":       l.Dropoff,
			})
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("insert legs: %w", err)
			}
		}

		rows := make([][]any, len(entries))
		for i, e := range entries {
			rows[i] = []any{tripID, e.DayIndex, e.Start, e.End, string(e.Status),
				e.Note, e.RuleApplied, e.Explanation}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"duty_entries"},
			[]string{"trip_id", "day_index", "start_time", "end_time", "duty_status",
				"note", "rule_applied", "explanation"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("copy entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.PlanRepo.Replace: %w", err)
	}
	return nil
}

// ListLegs returns the legs of a trip in order.
func (r *pgPlanRepo) ListLegs(ctx context.Context, tripID uuid.UUID) ([]domain.Leg, error) {
	const q = `
		SELECT leg_index, start_lat, start_lng, end_lat, end_lng,
		       distance_miles, duration_minutes, geometry, is_pickup, is_dropoff
		FROM trip_legs
		WHERE trip_id = @trip_id
		ORDER BY leg_index`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.PlanRepo.ListLegs: %w", err)
	}
	defer rows.Close()

	legs := []domain.Leg{}
	for rows.Next() {
		l := domain.Leg{TripID: tripID}
		var geometry []byte
		if err := rows.Scan(&l.Index, &l.From.Lat, &l.From.Lng, &l.To.Lat, &l.To.Lng,
			&l.DistanceMiles, &l.DurationMinutes, &geometry, &l.Pickup, &l.Dropoff); err != nil {
			return nil, fmt.Errorf("repo.PlanRepo.ListLegs: scan: %w", err)
		}
		l.Geometry = geometry
		legs = append(legs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PlanRepo.ListLegs: rows: %w", err)
	}
	return legs, nil
}

// ListEntries returns the duty entries of a trip ordered by start time.
func (r *pgPlanRepo) ListEntries(ctx context.Context, tripID uuid.UUID) ([]domain.DutyRecord, error) {
	const q = `
		SELECT id, day_index, start_time, end_time, duty_status, note, rule_applied, explanation
		FROM duty_entries
		WHERE trip_id = @trip_id
		ORDER BY start_time, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.PlanRepo.ListEntries: %w", err)
	}
	defer rows.Close()

	entries := []domain.DutyRecord{}
	for rows.Next() {
		e := domain.DutyRecord{TripID: tripID}
		var status string
		if err := rows.Scan(&e.ID, &e.DayIndex, &e.Start, &e.End, &status,
			&e.Note, &e.RuleApplied, &e.Explanation); err != nil {
			return nil, fmt.Errorf("repo.PlanRepo.ListEntries: scan: %w", err)
		}
		e.Status = hos.DutyStatus(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PlanRepo.ListEntries: rows: %w", err)
	}
	return entries, nil
}
