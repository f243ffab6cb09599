package handler

import (
	"net/http"

	"github.com/moenga-git/ELD-VO/internal/contract"
	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/middleware"
	"github.com/moenga-git/ELD-VO/internal/service"
)

const tripNotFound = "trip not found"

// CreateTrip handles POST /trips.
// The trip is routed and planned before the response is written.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body contract.TripRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err, "")
		return
	}
	trip, msg := requestToTrip(body)
	if msg != "" {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, msg)
		return
	}
	trip.DriverSubject = middleware.SubjectFromContext(r.Context())

	planned, err := s.trips.Create(r.Context(), trip)
	if err != nil {
		s.fail(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, plannedToSummary(planned))
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
// Authenticated callers only see their own trips.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	if err := queryParam(r, "page", &page); err != nil {
		s.fail(w, r, err, "")
		return
	}
	if err := queryParam(r, "limit", &limit); err != nil {
		s.fail(w, r, err, "")
		return
	}

	params := domain.NewPaginationParams(page, limit)
	trips, total, err := s.trips.ListPaged(r.Context(), middleware.SubjectFromContext(r.Context()), params)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	writeJSON(w, http.StatusOK, contract.TripPage{
		Data:       trips,
		Pagination: contract.Pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	if err := s.trips.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err, tripNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecalculateTrip handles POST /trips/{id}/recalculate.
// The body has the same shape as CreateTrip; the trip is rerouted and its
// duty entries replaced.
func (s *Server) RecalculateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	var body contract.TripRequest
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, r, err, "")
		return
	}
	trip, msg := requestToTrip(body)
	if msg != "" {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, msg)
		return
	}
	trip.ID = id

	planned, err := s.trips.Recalculate(r.Context(), trip)
	if err != nil {
		s.fail(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, plannedToSummary(planned))
}

// GetTripRoute handles GET /trips/{id}/route.
func (s *Server) GetTripRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	trip, legs, err := s.trips.Route(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, tripNotFound)
		return
	}
	if legs == nil {
		legs = []domain.Leg{}
	}
	writeJSON(w, http.StatusOK, contract.RouteResponse{
		TotalDistanceMi:  trip.DistanceMiles,
		TotalDurationMin: trip.DurationMinutes,
		Legs:             legs,
	})
}

// --- mapping helpers --------------------------------------------------------

// requestToTrip converts a TripRequest body into a domain.Trip. It returns a
// message naming the first missing field; range checks are left to the service.
func requestToTrip(body contract.TripRequest) (domain.Trip, string) {
	switch {
	case body.StartTime == nil:
		return domain.Trip{}, "start_time is required"
	case body.CurrentLocation == nil:
		return domain.Trip{}, "current_location is required"
	case body.Pickup == nil:
		return domain.Trip{}, "pickup is required"
	case body.Dropoff == nil:
		return domain.Trip{}, "dropoff is required"
	case body.CycleHoursUsed == nil:
		return domain.Trip{}, "current_cycle_hours_used is required"
	}
	return domain.Trip{
		StartTime:      *body.StartTime,
		Start:          *body.CurrentLocation,
		Pickup:         *body.Pickup,
		Dropoff:        *body.Dropoff,
		CycleHoursUsed: *body.CycleHoursUsed,
	}, ""
}

func plannedToSummary(p service.PlannedTrip) contract.TripSummary {
	return contract.TripSummary{
		TripID:          p.Trip.ID,
		DistanceMiles:   p.Trip.DistanceMiles,
		DurationMinutes: p.Trip.DurationMinutes,
		DrivingHours:    p.Plan.DrivingHours,
		Entries:         len(p.Plan.Entries),
		Summary: contract.RouteSummary{
			Provider:         p.Route.Provider,
			TotalDistanceMi:  p.Route.DistanceMiles,
			TotalDurationMin: p.Route.DurationMinutes,
			LegsCount:        len(p.Route.Legs),
		},
	}
}
