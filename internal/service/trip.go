// Package service contains the business logic for the ELD logbook API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here. Services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/hos"
	"github.com/moenga-git/ELD-VO/internal/planner"
	"github.com/moenga-git/ELD-VO/internal/repo"
	"github.com/moenga-git/ELD-VO/internal/route"
)

// LogCache stores rendered daily logs per trip and grid resolution.
type LogCache interface {
	Get(ctx context.Context, tripID uuid.UUID, resolution int) ([]byte, bool, error)
	Set(ctx context.Context, tripID uuid.UUID, resolution int, payload []byte) error
	Invalidate(ctx context.Context, tripID uuid.UUID) error
}

// PlannedTrip is a persisted trip together with the route and duty plan
// generated for it.
type PlannedTrip struct {
	Trip  domain.Trip
	Route route.Route
	Plan  planner.Plan
}

// TripService implements business logic for Trip operations.
type TripService struct {
	trips  repo.TripRepo
	plans  repo.PlanRepo
	router route.Provider
	cache  LogCache
	loc    *time.Location
	logger *slog.Logger
}

// NewTripService constructs a TripService. loc is the zone day boundaries
// are computed in; nil means UTC.
func NewTripService(trips repo.TripRepo, plans repo.PlanRepo, router route.Provider, cache LogCache, loc *time.Location, logger *slog.Logger) *TripService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TripService{trips: trips, plans: plans, router: router, cache: cache, loc: loc, logger: logger}
}

// Create validates the trip, routes it, schedules its duty entries and
// persists all three.
func (s *TripService) Create(ctx context.Context, trip domain.Trip) (PlannedTrip, error) {
	if err := validateTrip(trip); err != nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	rt, plan, err := s.build(ctx, trip)
	if err != nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	trip.DistanceMiles = rt.DistanceMiles
	trip.DurationMinutes = rt.DurationMinutes
	created, err := s.trips.Create(ctx, trip)
	if err != nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	if err := s.plans.Replace(ctx, created.ID, rt.Legs, s.records(created, plan)); err != nil {
		// Do not leave a trip without a plan behind.
		if derr := s.trips.Delete(ctx, created.ID); derr != nil {
			s.logger.ErrorContext(ctx, "failed to remove trip after plan write failed",
				"trip_id", created.ID, "error", derr)
		}
		return PlannedTrip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return PlannedTrip{Trip: created, Route: rt, Plan: plan}, nil
}

// Recalculate replaces the inputs of an existing trip and regenerates its
// route and duty plan. The trip keeps its ID and owner.
func (s *TripService) Recalculate(ctx context.Context, trip domain.Trip) (PlannedTrip, error) {
	existing, err := s.trips.GetByID(ctx, trip.ID)
	if err != nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Recalculate: %w", err)
	}
	if err := validateTrip(trip); err != nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Recalculate: %w", err)
	}
	rt, plan, err := s.build(ctx, trip)
	if err != nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Recalculate: %w", err)
	}

	trip.DriverSubject = existing.DriverSubject
	trip.DistanceMiles = rt.DistanceMiles
	trip.DurationMinutes = rt.DurationMinutes
	updated, err := s.trips.Update(ctx, trip)
	if err != nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Recalculate: %w", err)
	}
	if err := s.plans.Replace(ctx, updated.ID, rt.Legs, s.records(updated, plan)); err != nil {
		return PlannedTrip{}, fmt.Errorf("service.TripService.Recalculate: %w", err)
	}
	s.invalidate(ctx, updated.ID)
	return PlannedTrip{Trip: updated, Route: rt, Plan: plan}, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// ListPaged returns one page of trips. A non-empty subject restricts the
// list to that driver's trips.
func (s *TripService) ListPaged(ctx context.Context, subject string, p domain.PaginationParams) ([]domain.Trip, int, error) {
	trips, total, err := s.trips.ListPaged(ctx, subject, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListPaged: %w", err)
	}
	return trips, total, nil
}

// Delete removes a trip and everything planned for it.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.trips.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// Route returns a trip and its stored legs.
func (s *TripService) Route(ctx context.Context, id uuid.UUID) (domain.Trip, []domain.Leg, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, nil, fmt.Errorf("service.TripService.Route: %w", err)
	}
	legs, err := s.plans.ListLegs(ctx, id)
	if err != nil {
		return domain.Trip{}, nil, fmt.Errorf("service.TripService.Route: %w", err)
	}
	return trip, legs, nil
}

// build routes the trip and schedules its duty entries in the service zone.
func (s *TripService) build(ctx context.Context, trip domain.Trip) (route.Route, planner.Plan, error) {
	rt, err := s.router.Route(ctx, trip.Start, trip.Pickup, trip.Dropoff)
	if err != nil {
		return route.Route{}, planner.Plan{}, err
	}
	domain.MarkEndpoints(rt.Legs)
	plan, err := planner.Build(trip.StartTime.In(s.loc), rt.Legs, trip.CycleHoursUsed)
	if err != nil {
		return route.Route{}, planner.Plan{}, err
	}
	return rt, plan, nil
}

// records tags each planned entry with its day index relative to the trip's
// start date.
func (s *TripService) records(trip domain.Trip, plan planner.Plan) []domain.DutyRecord {
	first := hos.DayStart(trip.StartTime.In(s.loc))
	out := make([]domain.DutyRecord, len(plan.Entries))
	for i, e := range plan.Entries {
		out[i] = domain.DutyRecord{
			TripID:    trip.ID,
			DayIndex:  daysBetween(first, hos.DayStart(e.Start.In(s.loc))),
			DutyEntry: e,
		}
	}
	return out
}

func (s *TripService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "log cache invalidation failed", "trip_id", id, "error", err)
	}
}

// daysBetween counts calendar days from a to b. Both must be midnights.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// validateTrip enforces the input rules for a trip.
// Returns a wrapped domain.ErrValidation so callers can use errors.Is.
func validateTrip(t domain.Trip) error {
	if t.StartTime.IsZero() {
		return fmt.Errorf("%w: start_time is required", domain.ErrValidation)
	}
	for _, p := range []struct {
		name string
		loc  domain.Location
	}{
		{"current_location", t.Start},
		{"pickup", t.Pickup},
		{"dropoff", t.Dropoff},
	} {
		if !p.loc.Valid() {
			return fmt.Errorf("%w: %s must have lat in [-90, 90] and lng in [-180, 180]", domain.ErrValidation, p.name)
		}
	}
	if math.IsNaN(t.CycleHoursUsed) || t.CycleHoursUsed < 0 || t.CycleHoursUsed > domain.MaxCycleHours {
		return fmt.Errorf("%w: current_cycle_hours_used must be between 0 and %d", domain.ErrValidation, domain.MaxCycleHours)
	}
	return nil
}
