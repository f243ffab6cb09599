// Package planner schedules the duty entries a single driver needs to run a
// routed trip within the Hours-of-Service limits.
package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/hos"
)

// Stop durations and the fuel interval.
const (
	FuelIntervalMiles = 1000.0
	FuelStop          = 20 * time.Minute
	PickupDropoff     = 60 * time.Minute
)

// Plan is the generated duty timeline for a trip.
type Plan struct {
	Entries []hos.DutyEntry
	// End is when the dropoff work finishes, before end-of-day padding.
	End            time.Time
	DrivingHours   float64
	CycleHoursUsed float64 // at End
}

// Build schedules legs starting at start. cycleHoursUsed is the driver's
// on-duty time already counted in the 70-hour/8-day cycle. Entries are
// contiguous; the first and last calendar days are padded with OFF_DUTY so
// each day's log runs midnight to midnight. Padding uses start's location.
func Build(start time.Time, legs []domain.Leg, cycleHoursUsed float64) (Plan, error) {
	if start.IsZero() {
		return Plan{}, fmt.Errorf("planner.Build: %w: start time is required", domain.ErrValidation)
	}
	if cycleHoursUsed < 0 || cycleHoursUsed > domain.MaxCycleHours || math.IsNaN(cycleHoursUsed) {
		return Plan{}, fmt.Errorf("planner.Build: %w: cycle hours used must be between 0 and %d",
			domain.ErrValidation, domain.MaxCycleHours)
	}
	for _, l := range legs {
		if l.DurationMinutes < 0 || l.DistanceMiles < 0 {
			return Plan{}, fmt.Errorf("planner.Build: %w: leg %d has negative distance or duration",
				domain.ErrValidation, l.Index)
		}
	}

	s := &scheduler{
		now:   start,
		cycle: time.Duration(cycleHoursUsed * float64(time.Hour)),
	}
	if dayStart := hos.DayStart(start); start.After(dayStart) {
		s.entries = append(s.entries, hos.DutyEntry{
			Start:  dayStart,
			End:    start,
			Status: hos.OffDuty,
			Note:   "Off duty before trip start",
		})
	}

	for _, leg := range legs {
		s.drive(leg)
		switch {
		case leg.Pickup:
			s.work(PickupDropoff, "Pickup", "60 minutes on duty for loading at pickup")
		case leg.Dropoff:
			s.work(PickupDropoff, "Dropoff", "60 minutes on duty for unloading at dropoff")
		}
		// A single-leg trip ends at the dropoff too.
		if leg.Pickup && leg.Dropoff {
			s.work(PickupDropoff, "Dropoff", "60 minutes on duty for unloading at dropoff")
		}
	}

	plan := Plan{
		End:            s.now,
		DrivingHours:   s.totalDriving.Hours(),
		CycleHoursUsed: s.cycle.Hours(),
	}
	if dayStart := hos.DayStart(s.now); s.now.After(dayStart) {
		s.entries = append(s.entries, hos.DutyEntry{
			Start:  s.now,
			End:    dayStart.AddDate(0, 0, 1),
			Status: hos.OffDuty,
			Note:   "Off duty after trip end",
		})
	}
	plan.Entries = s.entries
	return plan, nil
}

// scheduler carries the running HOS counters while the plan is laid out.
type scheduler struct {
	entries []hos.DutyEntry
	now     time.Time

	windowStart    time.Time // zero until the first on-duty time of the shift
	shiftDriving   time.Duration
	sinceBreak     time.Duration
	cycle          time.Duration
	totalDriving   time.Duration
	milesSinceFuel float64
}

func (s *scheduler) emit(status hos.DutyStatus, d time.Duration, note, rule, explanation string) {
	s.entries = append(s.entries, hos.DutyEntry{
		Start:       s.now,
		End:         s.now.Add(d),
		Status:      status,
		Note:        note,
		RuleApplied: rule,
		Explanation: explanation,
	})

	switch status {
	case hos.Driving, hos.OnDutyNotDriving:
		if s.windowStart.IsZero() {
			s.windowStart = s.now
		}
		s.cycle += d
		if status == hos.Driving {
			s.shiftDriving += d
			s.sinceBreak += d
			s.totalDriving += d
		} else if d >= hos.MinBreak {
			s.sinceBreak = 0
		}
	case hos.OffDuty, hos.Sleeper:
		if d >= hos.CycleRestartOffDuty {
			s.cycle = 0
		}
		if d >= hos.ShiftResetOffDuty {
			s.windowStart = time.Time{}
			s.shiftDriving = 0
		}
		if d >= hos.MinBreak {
			s.sinceBreak = 0
		}
	}
	s.now = s.now.Add(d)
}

func (s *scheduler) restart() {
	s.emit(hos.OffDuty, hos.CycleRestartOffDuty, "34-hour restart", hos.RuleRestart,
		"70-hour/8-day cycle exhausted; 34 consecutive hours off duty restarts it")
}

func (s *scheduler) rest() {
	s.emit(hos.OffDuty, hos.ShiftResetOffDuty, "10-hour rest", hos.RuleShiftReset,
		"Driving or duty-window limit reached; 10 consecutive hours off duty start a new shift")
}

func (s *scheduler) takeBreak() {
	s.emit(hos.OffDuty, hos.MinBreak, "30-minute break", hos.RuleBreak,
		"30-minute break required after 8 cumulative hours of driving")
}

// work records on-duty time at a stop, restarting the cycle first if the
// stop would push it past 70 hours.
func (s *scheduler) work(d time.Duration, note, explanation string) {
	if s.cycle+d > hos.Cycle70Hour.LimitDuration() {
		s.restart()
	}
	s.emit(hos.OnDutyNotDriving, d, note, hos.RuleOnDuty, explanation)
}

// available returns how long the driver may drive from now before some limit
// is reached, ignoring fuel.
func (s *scheduler) available() time.Duration {
	d := min(
		hos.MaxDrivingPerShift-s.shiftDriving,
		hos.DrivingBeforeBreak-s.sinceBreak,
		hos.Cycle70Hour.LimitDuration()-s.cycle,
	)
	if !s.windowStart.IsZero() {
		d = min(d, s.windowStart.Add(hos.DutyWindow).Sub(s.now))
	}
	return d
}

// makeRoom inserts the rest needed before any driving is possible.
func (s *scheduler) makeRoom() {
	for s.available() <= 0 {
		switch {
		case s.cycle >= hos.Cycle70Hour.LimitDuration():
			s.restart()
		case s.shiftDriving >= hos.MaxDrivingPerShift,
			!s.windowStart.IsZero() && !s.now.Before(s.windowStart.Add(hos.DutyWindow)):
			s.rest()
		default:
			s.takeBreak()
		}
	}
}

func (s *scheduler) drive(leg domain.Leg) {
	remaining := leg.Duration()
	if remaining <= 0 {
		return
	}
	mph := leg.DistanceMiles / remaining.Hours()

	for remaining > 0 {
		if mph > 0 && s.milesSinceFuel >= FuelIntervalMiles-1e-6 {
			fuelAt := s.milesSinceFuel
			s.milesSinceFuel = 0
			s.work(FuelStop, "Fuel stop",
				fmt.Sprintf("20 minutes on duty fuelling after %.0f miles", fuelAt))
			continue
		}
		s.makeRoom()

		chunk := min(remaining, s.available())
		if mph > 0 {
			toFuel := ceilSecond(time.Duration((FuelIntervalMiles - s.milesSinceFuel) / mph * float64(time.Hour)))
			if toFuel > 0 {
				chunk = min(chunk, toFuel)
			}
		}

		s.emit(hos.Driving, chunk, fmt.Sprintf("Driving leg %d", leg.Index+1), hos.RuleDriving,
			fmt.Sprintf("Driving %s toward %s", chunk.Round(time.Minute), legTarget(leg)))
		s.milesSinceFuel += chunk.Hours() * mph
		remaining -= chunk
	}
}

// ceilSecond rounds d up to a whole second so chunks stay on the same
// second grid as the limits.
func ceilSecond(d time.Duration) time.Duration {
	if r := d.Truncate(time.Second); r != d {
		return r + time.Second
	}
	return d
}

func legTarget(leg domain.Leg) string {
	if leg.Pickup {
		return "pickup"
	}
	if leg.Dropoff {
		return "dropoff"
	}
	return "next stop"
}
