package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Leg is one routed segment of a trip. Leg 0 ends at the pickup; the last leg
// ends at the dropoff.
type Leg struct {
	TripID          uuid.UUID       `json:"-"`
	Index           int             `json:"leg_index"`
	From            Location        `json:"start"`
	To              Location        `json:"end"`
	DistanceMiles   float64         `json:"distance_miles"`
	DurationMinutes int             `json:"duration_minutes"`
	Geometry        json.RawMessage `json:"geometry,omitempty"` // GeoJSON LineString
	Pickup          bool            `json:"is_pickup"`
	Dropoff         bool            `json:"is_dropoff"`
}

// Duration returns the leg's drive time.
func (l Leg) Duration() time.Duration {
	return time.Duration(l.DurationMinutes) * time.Minute
}

// MarkEndpoints sets Pickup on the first leg and Dropoff on the last.
func MarkEndpoints(legs []Leg) {
	for i := range legs {
		legs[i].Index = i
		legs[i].Pickup = i == 0
		legs[i].Dropoff = i == len(legs)-1
	}
}
