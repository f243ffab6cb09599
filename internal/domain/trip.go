// Package domain contains the core data types for the ELD logbook backend.
// It has no dependencies beyond uuid and the hos aggregator and is imported
// by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxCycleHours is the upper bound a driver may declare as already used
// when a trip is created (the 70-hour/8-day ceiling).
const MaxCycleHours = 70

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinates are inside the WGS84 range.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Trip is one haul from the driver's current location through a pickup to a
// dropoff. It is the top-level aggregate; legs and duty entries belong to it.
type Trip struct {
	ID uuid.UUID `json:"id"`
	// DriverSubject is the bearer-token subject that created the trip.
	// Empty when the trip was created anonymously.
	DriverSubject  string    `json:"driver_subject,omitempty"`
	StartTime      time.Time `json:"start_time"`
	Start          Location  `json:"start"`
	Pickup         Location  `json:"pickup"`
	Dropoff        Location  `json:"dropoff"`
	CycleHoursUsed float64   `json:"cycle_hours_used"`
	// Route totals; zero until the trip has been routed.
	DistanceMiles   float64   `json:"distance_miles"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
