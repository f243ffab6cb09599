package route

import (
	"context"
	"math"

	"github.com/moenga-git/ELD-VO/internal/domain"
)

const (
	earthRadiusMiles = 3959.0
	// FallbackSpeedMPH is the average speed assumed for straight-line legs.
	FallbackSpeedMPH = 55.0
)

// Straight estimates legs from great-circle distance at FallbackSpeedMPH. It
// never fails.
type Straight struct{}

// Route implements Provider.
func (Straight) Route(_ context.Context, start, pickup, dropoff domain.Location) (Route, error) {
	legs := []domain.Leg{
		straightLeg(start, pickup),
		straightLeg(pickup, dropoff),
	}
	domain.MarkEndpoints(legs)

	r := Route{Provider: "fallback", Legs: legs}
	for _, l := range legs {
		r.DistanceMiles += l.DistanceMiles
		r.DurationMinutes += l.DurationMinutes
	}
	return r, nil
}

func straightLeg(from, to domain.Location) domain.Leg {
	miles := Haversine(from, to)
	return domain.Leg{
		From:            from,
		To:              to,
		DistanceMiles:   miles,
		DurationMinutes: int(miles / FallbackSpeedMPH * 60),
		Geometry:        lineString(from, to),
	}
}

// Haversine returns the great-circle distance between a and b in miles.
func Haversine(a, b domain.Location) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
