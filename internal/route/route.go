// Package route resolves a trip's start, pickup and dropoff into driving legs.
package route

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/metrics"
)

// Route is a routed trip: leg 0 runs start → pickup, leg 1 pickup → dropoff.
type Route struct {
	Provider        string       `json:"provider"`
	DistanceMiles   float64      `json:"distance_miles"`
	DurationMinutes int          `json:"duration_minutes"`
	Legs            []domain.Leg `json:"legs"`
}

// Provider computes a route through the three trip points.
type Provider interface {
	Route(ctx context.Context, start, pickup, dropoff domain.Location) (Route, error)
}

// Fallback tries Primary and, when it fails or is not configured, answers
// with Secondary. Fallbacks are logged and counted.
type Fallback struct {
	Primary   Provider // may be nil
	Secondary Provider
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// WithFallback wraps primary so that failures fall back to the straight-line
// estimator.
func WithFallback(primary Provider, logger *slog.Logger, m *metrics.Metrics) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{Primary: primary, Secondary: Straight{}, Logger: logger, Metrics: m}
}

// Route implements Provider.
func (f *Fallback) Route(ctx context.Context, start, pickup, dropoff domain.Location) (Route, error) {
	if f.Primary != nil {
		r, err := f.Primary.Route(ctx, start, pickup, dropoff)
		if err == nil {
			return r, nil
		}
		if ctx.Err() != nil {
			return Route{}, ctx.Err()
		}
		f.Logger.WarnContext(ctx, "routing provider failed, using straight-line fallback", "error", err)
		f.Metrics.IncRouteFallback()
	}
	return f.Secondary.Route(ctx, start, pickup, dropoff)
}

// lineString returns a GeoJSON LineString through points, in lng,lat order.
func lineString(points ...domain.Location) json.RawMessage {
	coords := make([][2]float64, len(points))
	for i, p := range points {
		coords[i] = [2]float64{p.Lng, p.Lat}
	}
	b, _ := json.Marshal(struct {
		Type        string       `json:"type"`
		Coordinates [][2]float64 `json:"coordinates"`
	}{"LineString", coords})
	return b
}
