package hos

import "time"

// Totals holds per-status hours for one day, plus the rolling cycle totals
// once the day has been placed in a series.
type Totals struct {
	DrivingHours float64 `json:"driving_hours"`
	// OnDutyHours counts ON_DUTY_NOT_DRIVING time only; driving is separate.
	OnDutyHours  float64 `json:"on_duty_hours"`
	OffDutyHours float64 `json:"off_duty_hours"`
	SleeperHours float64 `json:"sleeper_hours"`

	Cycle60HourTotal *float64 `json:"cycle_60_hour_total,omitempty"`
	Cycle70HourTotal *float64 `json:"cycle_70_hour_total,omitempty"`
}

// ByStatus returns the hours for one status; Unknown yields 0.
func (t Totals) ByStatus(s DutyStatus) float64 {
	switch s {
	case Driving:
		return t.DrivingHours
	case OnDutyNotDriving:
		return t.OnDutyHours
	case OffDuty:
		return t.OffDutyHours
	case Sleeper:
		return t.SleeperHours
	}
	return 0
}

// Sum returns the hours across all four statuses.
func (t Totals) Sum() float64 {
	return t.DrivingHours + t.OnDutyHours + t.OffDutyHours + t.SleeperHours
}

// CycleHours returns driving plus on-duty-not-driving hours.
func (t Totals) CycleHours() float64 {
	return t.DrivingHours + t.OnDutyHours
}

func (t *Totals) add(s DutyStatus, d time.Duration) {
	h := d.Hours()
	switch s {
	case Driving:
		t.DrivingHours += h
	case OnDutyNotDriving:
		t.OnDutyHours += h
	case OffDuty:
		t.OffDutyHours += h
	case Sleeper:
		t.SleeperHours += h
	}
}

// ComputeDailyTotals sums end - start per status for the entries of the day
// containing day. Every entry must lie within that day: an entry ending after
// midnight fails with a CrossDayEntry ValidationError so the caller can
// re-segment (see SplitAtMidnight).
func ComputeDailyTotals(day time.Time, entries []DutyEntry) (Totals, error) {
	dayStart, dayEnd := dayBounds(day)
	if err := validateInDay(dayStart, dayEnd, entries, true); err != nil {
		return Totals{}, err
	}
	var t Totals
	for _, e := range entries {
		t.add(e.Status, e.Duration())
	}
	return t, nil
}
