package hos

import (
	"math"
	"time"
)

// CycleRule is one of the two rolling on-duty limits.
type CycleRule struct {
	Name       string  `json:"name"`
	Citation   string  `json:"rule"`
	WindowDays int     `json:"window_days"`
	LimitHours float64 `json:"limit_hours"`
}

var (
	Cycle60Hour = CycleRule{Name: "60-hour/7-day", Citation: RuleCycle60, WindowDays: 7, LimitHours: 60}
	Cycle70Hour = CycleRule{Name: "70-hour/8-day", Citation: RuleCycle70, WindowDays: 8, LimitHours: 70}
)

// LimitDuration returns the ceiling as a duration.
func (r CycleRule) LimitDuration() time.Duration {
	return time.Duration(r.LimitHours * float64(time.Hour))
}

// CycleRules returns the supported cycles, shortest window first.
func CycleRules() []CycleRule {
	return []CycleRule{Cycle60Hour, Cycle70Hour}
}

// CycleSummary is the result of evaluating a series against one cycle rule.
type CycleSummary struct {
	Rule            CycleRule `json:"cycle"`
	TotalHours      float64   `json:"total_hours"`
	HoursRemaining  float64   `json:"hours_remaining"`
	Compliant       bool      `json:"compliant"`
	RestartDetected bool      `json:"restart_detected"`
}

// RollingCycleTotal sums the last windowDays values of series, which holds
// chronological per-day driving plus on-duty-not-driving hours.
//
// seedHours is the time already accumulated before the series began. It is
// added once, and only while the series is shorter than the window; once the
// series covers the full window the observed days alone determine the total.
func RollingCycleTotal(series []float64, windowDays int, seedHours float64) (float64, error) {
	if windowDays <= 0 {
		return 0, invalid(InvalidWindow, "window of %d days must be positive", windowDays)
	}
	if seedHours < 0 || math.IsNaN(seedHours) {
		return 0, invalid(NegativeHours, "seed hours %v must be non-negative", seedHours)
	}
	for i, h := range series {
		if h < 0 || math.IsNaN(h) {
			return 0, invalid(NegativeHours, "day %d: %v hours must be non-negative", i, h)
		}
	}

	from := 0
	if len(series) > windowDays {
		from = len(series) - windowDays
	}
	var total float64
	for _, h := range series[from:] {
		total += h
	}
	if len(series) < windowDays {
		total += seedHours
	}
	return total, nil
}

// EvaluateCycle compares the rolling total for rule against its ceiling.
func EvaluateCycle(rule CycleRule, series []float64, seedHours float64) (CycleSummary, error) {
	total, err := RollingCycleTotal(series, rule.WindowDays, seedHours)
	if err != nil {
		return CycleSummary{}, err
	}
	return summarize(rule, total), nil
}

func summarize(rule CycleRule, total float64) CycleSummary {
	return CycleSummary{
		Rule:           rule,
		TotalHours:     total,
		HoursRemaining: math.Max(0, rule.LimitHours-total),
		Compliant:      total <= rule.LimitHours,
	}
}

// FindRestart returns the end of the last stretch of at least 34 consecutive
// hours of off-duty or sleeper time. A gap between entries breaks a stretch.
func FindRestart(entries []DutyEntry) (time.Time, bool) {
	ends := restartEnds(entries)
	if len(ends) == 0 {
		return time.Time{}, false
	}
	return ends[len(ends)-1], true
}

// restartEnds returns, in order, the instant each qualifying restart completed.
// A stretch that keeps going after reaching 34 hours completes at its end.
func restartEnds(entries []DutyEntry) []time.Time {
	var (
		ends   []time.Time
		run    time.Duration
		runEnd time.Time
	)
	flush := func() {
		if run >= CycleRestartOffDuty {
			ends = append(ends, runEnd)
		}
		run = 0
	}
	for _, e := range sortedCopy(entries) {
		if !e.End.After(e.Start) {
			continue
		}
		if e.Status != OffDuty && e.Status != Sleeper {
			flush()
			continue
		}
		if run > 0 && !e.Start.Equal(runEnd) {
			flush()
		}
		run += e.Duration()
		runEnd = e.End
	}
	flush()
	return ends
}

// lastRestartBy returns the latest restart completed at or before t.
func lastRestartBy(ends []time.Time, t time.Time) (time.Time, bool) {
	for i := len(ends) - 1; i >= 0; i-- {
		if !ends[i].After(t) {
			return ends[i], true
		}
	}
	return time.Time{}, false
}
