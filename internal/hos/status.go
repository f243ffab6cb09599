// Package hos implements the Hours-of-Service duty-status timeline aggregator.
//
// It turns timestamped duty entries into per-day status grids, per-status
// totals, rolling 60/70-hour cycle totals and compliance flags. Every function
// in this package is pure: no I/O, no shared state, safe for concurrent use.
package hos

import (
	"encoding/json"
	"fmt"
)

// DutyStatus is one of the four FMCSA duty statuses, or Unknown for grid
// buckets that no entry covers.
type DutyStatus string

const (
	OffDuty          DutyStatus = "OFF_DUTY"
	Sleeper          DutyStatus = "SLEEPER"
	Driving          DutyStatus = "DRIVING"
	OnDutyNotDriving DutyStatus = "ON_DUTY_NOT_DRIVING"

	// Unknown marks a grid bucket whose start instant falls in a coverage gap.
	// It is never valid on a DutyEntry.
	Unknown DutyStatus = "UNKNOWN"
)

// Statuses lists the valid entry statuses in log-sheet row order.
var Statuses = []DutyStatus{OffDuty, Sleeper, Driving, OnDutyNotDriving}

// Valid reports whether s may appear on a DutyEntry.
func (s DutyStatus) Valid() bool {
	switch s {
	case OffDuty, Sleeper, Driving, OnDutyNotDriving:
		return true
	}
	return false
}

// CountsTowardCycle reports whether time in s accrues against the 60/70-hour cycle.
func (s DutyStatus) CountsTowardCycle() bool {
	return s == Driving || s == OnDutyNotDriving
}

// ParseStatus converts a wire value into a DutyStatus.
func ParseStatus(v string) (DutyStatus, error) {
	s := DutyStatus(v)
	if !s.Valid() {
		return "", &ValidationError{Kind: UnknownStatus, Msg: fmt.Sprintf("unknown duty status %q", v)}
	}
	return s, nil
}

// UnmarshalJSON rejects statuses outside the fixed set, including UNKNOWN.
func (s *DutyStatus) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := ParseStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Presentation is how a status is shown on a log sheet.
type Presentation struct {
	Label string `json:"label"`
	Short string `json:"short"`
	Color string `json:"color"`
	Row   int    `json:"row"`
}

var presentations = map[DutyStatus]Presentation{
	OffDuty:          {Label: "Off Duty", Short: "OFF", Color: "#9ca3af", Row: 1},
	Sleeper:          {Label: "Sleeper Berth", Short: "SB", Color: "#6366f1", Row: 2},
	Driving:          {Label: "Driving", Short: "D", Color: "#16a34a", Row: 3},
	OnDutyNotDriving: {Label: "On Duty (Not Driving)", Short: "ON", Color: "#f59e0b", Row: 4},
	Unknown:          {Label: "Unknown", Short: "?", Color: "#ef4444", Row: 0},
}

// Label returns the presentation for s. Unrecognised values render as Unknown.
func Label(s DutyStatus) Presentation {
	if p, ok := presentations[s]; ok {
		return p
	}
	return presentations[Unknown]
}
