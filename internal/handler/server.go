// Package handler implements the HTTP handlers for the ELD logbook API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, logs.go, export.go) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/moenga-git/ELD-VO/internal/contract"
	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/hos"
	"github.com/moenga-git/ELD-VO/internal/service"
)

// TripServicer defines the trip operations the handlers depend on.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (service.PlannedTrip, error)
	Recalculate(ctx context.Context, trip domain.Trip) (service.PlannedTrip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListPaged(ctx context.Context, subject string, p domain.PaginationParams) ([]domain.Trip, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Route(ctx context.Context, id uuid.UUID) (domain.Trip, []domain.Leg, error)
}

// LogServicer produces daily log sheets.
type LogServicer interface {
	Logs(ctx context.Context, tripID uuid.UUID, resolution int) (contract.Logs, error)
	Aggregate(ctx context.Context, days []contract.Day, opts hos.Options) (contract.Logs, error)
}

// ExportServicer defines the export operation the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error)
}

// Server holds the services behind every endpoint. Any of them may be nil
// when a test only exercises part of the API.
type Server struct {
	trips  TripServicer
	logs   LogServicer
	export ExportServicer
	logger *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, logs LogServicer, export ExportServicer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{trips: trips, logs: logs, export: export, logger: logger}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// Register mounts every endpoint on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Delete("/", s.DeleteTrip)
			r.Post("/recalculate", s.RecalculateTrip)
			r.Get("/route", s.GetTripRoute)
			r.Get("/logs", s.GetTripLogs)
			r.Get("/export", s.GetExport)
		})
	})
	r.Post("/logs/aggregate", s.AggregateLogs)
}

// Handler returns a chi router with every endpoint registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}
