// Package contract defines the JSON shapes exchanged with clients: the
// per-day input a log provider sends, the aggregated output the rendering
// layer consumes, and the trip request and response bodies.
package contract

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/hos"
)

// Day is one calendar day of provider data. Totals are optional; when absent
// they are derived from DutyEntries.
type Day struct {
	Date        openapi_types.Date `json:"date"`
	DutyEntries []hos.DutyEntry    `json:"duty_entries"`
	Totals      *hos.Totals        `json:"totals,omitempty"`
}

// Inputs converts provider days into aggregator inputs, interpreting each
// date as midnight in loc.
func Inputs(days []Day, loc *time.Location) []hos.DayInput {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]hos.DayInput, len(days))
	for i, d := range days {
		out[i] = hos.DayInput{
			Date:    time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), 0, 0, 0, 0, loc),
			Entries: d.DutyEntries,
			Totals:  d.Totals,
		}
	}
	return out
}

// DayLog is a Day augmented with everything the renderer needs: the bucket
// grid, computed totals, data-quality diagnostics and violations.
type DayLog struct {
	Date        openapi_types.Date `json:"date"`
	DutyEntries []hos.DutyEntry    `json:"duty_entries"`
	Totals      hos.Totals         `json:"totals"`
	Grid        []hos.Bucket       `json:"grid"`
	Diagnostics hos.Diagnostics    `json:"diagnostics"`
	Violations  []hos.Violation    `json:"violations"`
	Synthesized bool               `json:"synthesized,omitempty"`
}

// Logs is the output contract for a series of days.
type Logs struct {
	TripID            *uuid.UUID         `json:"trip_id,omitempty"`
	ResolutionMinutes int                `json:"resolution_minutes"`
	Days              []DayLog           `json:"days"`
	Cycles            []hos.CycleSummary `json:"cycles"`
}

// FromResult renders an aggregation result.
func FromResult(res hos.Result, resolutionMinutes int) Logs {
	out := Logs{
		ResolutionMinutes: resolutionMinutes,
		Days:              make([]DayLog, len(res.Days)),
		Cycles:            res.Cycles,
	}
	for i, d := range res.Days {
		entries := d.Entries
		if entries == nil {
			entries = []hos.DutyEntry{}
		}
		violations := d.Violations
		if violations == nil {
			violations = []hos.Violation{}
		}
		out.Days[i] = DayLog{
			Date:        openapi_types.Date{Time: d.Date},
			DutyEntries: entries,
			Totals:      d.Totals,
			Grid:        d.Grid,
			Diagnostics: d.Diagnostics,
			Violations:  violations,
			Synthesized: d.Synthesized,
		}
	}
	if out.Cycles == nil {
		out.Cycles = []hos.CycleSummary{}
	}
	return out
}

// TripRequest is the body of POST /trips and POST /trips/{id}/recalculate.
// Pointers distinguish missing fields from zero values.
type TripRequest struct {
	StartTime       *time.Time       `json:"start_time"`
	CurrentLocation *domain.Location `json:"current_location"`
	Pickup          *domain.Location `json:"pickup"`
	Dropoff         *domain.Location `json:"dropoff"`
	CycleHoursUsed  *float64         `json:"current_cycle_hours_used"`
}

// RouteSummary condenses a routed trip.
type RouteSummary struct {
	Provider         string  `json:"provider"`
	TotalDistanceMi  float64 `json:"total_distance_mi"`
	TotalDurationMin int     `json:"total_duration_min"`
	LegsCount        int     `json:"legs_count"`
}

// TripSummary is returned after a trip is planned.
type TripSummary struct {
	TripID          uuid.UUID    `json:"trip_id"`
	DistanceMiles   float64      `json:"distance_miles"`
	DurationMinutes int          `json:"duration_minutes"`
	DrivingHours    float64      `json:"driving_hours"`
	Entries         int          `json:"duty_entries"`
	Summary         RouteSummary `json:"summary"`
}

// RouteResponse is the body of GET /trips/{id}/route.
type RouteResponse struct {
	TotalDistanceMi  float64      `json:"total_distance_mi"`
	TotalDurationMin int          `json:"total_duration_min"`
	Legs             []domain.Leg `json:"legs"`
}

// Pagination describes one page of a list.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// TripPage is the body of GET /trips.
type TripPage struct {
	Data       []domain.Trip `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// ExportRow is the JSON form of domain.ExportRow.
type ExportRow struct {
	TripID         openapi_types.UUID `json:"trip_id"`
	TripStart      time.Time          `json:"trip_start"`
	CycleHoursUsed float64            `json:"cycle_hours_used"`
	DayIndex       int                `json:"day_index"`
	Start          time.Time          `json:"start"`
	End            time.Time          `json:"end"`
	DutyStatus     string             `json:"duty_status"`
	Hours          float64            `json:"hours"`
	Note           *string            `json:"note,omitempty"`
	RuleApplied    *string            `json:"rule_applied,omitempty"`
}

// ErrorDetail is the payload of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Health is the body of GET /healthz.
type Health struct {
	Status string `json:"status"`
}
