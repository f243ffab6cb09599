package hos

import (
	"math"
	"slices"
	"time"
)

// DayInput is one calendar day as delivered by a log provider. Totals, when
// present, are the provider's precomputed values.
type DayInput struct {
	Date    time.Time
	Entries []DutyEntry
	Totals  *Totals
	// Synthesized marks a placeholder day. It is carried through to the
	// output unchanged and does not alter how the day is aggregated.
	Synthesized bool
}

// DailyLog is the aggregated view of one day. It is built fresh by
// Aggregate and never modified afterwards.
type DailyLog struct {
	Date        time.Time
	Entries     []DutyEntry
	Grid        []Bucket
	Totals      Totals
	Diagnostics Diagnostics
	Violations  []Violation
	Synthesized bool
}

// Options tunes Aggregate. The zero value aggregates hourly in UTC with no
// seed hours.
type Options struct {
	ResolutionMinutes int
	Location          *time.Location
	// SeedHours is the driver's declared cycle hours used before the first day.
	SeedHours float64
	// TrustProvidedTotals skips recomputation for days that carry Totals.
	TrustProvidedTotals bool
	// ApplyRestart drops time before a 34-hour off-duty restart from the
	// rolling cycle totals. Without it a restart is only reported.
	ApplyRestart bool
}

// Result is the aggregated output for a series of days.
type Result struct {
	Days []DailyLog
	// Cycles evaluates both cycle rules as of the last day.
	Cycles []CycleSummary
}

// Aggregate builds grids, totals, rolling cycle totals and violations for
// days. Days are processed in date order; two inputs for the same date are
// merged. Entries must already be split at midnight. Gaps and overlaps are
// reported per day in Diagnostics; only invalid arguments return an error.
func Aggregate(days []DayInput, opts Options) (Result, error) {
	res, err := ValidateResolution(opts.ResolutionMinutes)
	if err != nil {
		return Result{}, err
	}
	if opts.SeedHours < 0 || math.IsNaN(opts.SeedHours) {
		return Result{}, invalid(NegativeHours, "seed hours %v must be non-negative", opts.SeedHours)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	inputs := mergeDays(days, loc)
	logs := make([]DailyLog, 0, len(inputs))
	var all []DutyEntry

	for _, in := range inputs {
		dayStart, dayEnd := dayBounds(in.Date)
		if err := validateInDay(dayStart, dayEnd, in.Entries, true); err != nil {
			return Result{}, err
		}
		grid, diag, err := BuildGrid(dayStart, in.Entries, res)
		if err != nil {
			return Result{}, err
		}

		var totals Totals
		if in.Totals != nil && opts.TrustProvidedTotals {
			totals = *in.Totals
		} else {
			totals, err = ComputeDailyTotals(dayStart, in.Entries)
			if err != nil {
				return Result{}, err
			}
		}

		logs = append(logs, DailyLog{
			Date:        dayStart,
			Entries:     sortedCopy(in.Entries),
			Grid:        grid,
			Totals:      totals,
			Diagnostics: diag,
			Synthesized: in.Synthesized,
		})
		all = append(all, in.Entries...)
	}

	restarts := restartEnds(all)

	var cycles []CycleSummary
	for i := range logs {
		dayEnd := nextDay(logs[i].Date)
		restartEnd, restarted := lastRestartBy(restarts, dayEnd)
		var cutoff time.Time
		if restarted && opts.ApplyRestart {
			cutoff = restartEnd
		}

		cycles = cycles[:0]
		for _, rule := range CycleRules() {
			series, seed := cycleSeries(trailingDays(logs[:i+1], rule.WindowDays), cutoff, opts.SeedHours)
			total, err := RollingCycleTotal(series, rule.WindowDays, seed)
			if err != nil {
				return Result{}, err
			}
			total = providedCycleTotal(logs[i].Totals, rule, total)
			sum := summarize(rule, total)
			sum.RestartDetected = restarted
			cycles = append(cycles, sum)
			setCycleTotal(&logs[i].Totals, rule, total)
			if !sum.Compliant {
				logs[i].Violations = append(logs[i].Violations, Violation{
					Kind:    CycleLimitExceeded,
					Rule:    rule.Citation,
					At:      logs[i].Date,
					Message: "rolling " + rule.Name + " limit exceeded",
				})
			}
		}
	}

	assignViolations(logs, CheckCompliance(all))

	if len(logs) == 0 {
		for _, rule := range CycleRules() {
			cycles = append(cycles, summarize(rule, opts.SeedHours))
		}
	}
	return Result{Days: logs, Cycles: slices.Clone(cycles)}, nil
}

// mergeDays normalises dates to midnight in loc, sorts, and folds inputs that
// share a date into one. Provided totals are dropped from merged days.
func mergeDays(days []DayInput, loc *time.Location) []DayInput {
	out := make([]DayInput, 0, len(days))
	for _, d := range days {
		// The calendar date is taken as written, not converted into loc.
		d.Date = time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), 0, 0, 0, 0, loc)
		entries := make([]DutyEntry, len(d.Entries))
		for i, e := range d.Entries {
			e.Start, e.End = e.Start.In(loc), e.End.In(loc)
			entries[i] = e
		}
		d.Entries = entries
		out = append(out, d)
	}
	slices.SortStableFunc(out, func(a, b DayInput) int { return a.Date.Compare(b.Date) })

	merged := out[:0]
	for _, d := range out {
		if n := len(merged); n > 0 && merged[n-1].Date.Equal(d.Date) {
			prev := &merged[n-1]
			prev.Entries = append(prev.Entries, d.Entries...)
			prev.Totals = nil
			prev.Synthesized = prev.Synthesized && d.Synthesized
			continue
		}
		merged = append(merged, d)
	}
	return merged
}

// trailingDays returns the tail of logs that falls within the n calendar days
// ending on the last log's date. Untracked dates inside the window are left
// to the seed.
func trailingDays(logs []DailyLog, n int) []DailyLog {
	if len(logs) == 0 {
		return logs
	}
	from := logs[len(logs)-1].Date.AddDate(0, 0, -(n - 1))
	i := len(logs)
	for i > 0 && !logs[i-1].Date.Before(from) {
		i--
	}
	return logs[i:]
}

// cycleSeries returns per-day cycle hours for logs, ignoring time before
// cutoff. The seed predates any restart in the series, so a cutoff discards it.
func cycleSeries(logs []DailyLog, cutoff time.Time, seed float64) ([]float64, float64) {
	series := make([]float64, 0, len(logs))
	for _, l := range logs {
		dayEnd := nextDay(l.Date)
		switch {
		case cutoff.IsZero() || !cutoff.After(l.Date):
			series = append(series, l.Totals.CycleHours())
		case !cutoff.Before(dayEnd):
			// Entirely before the restart.
		default:
			var h float64
			for _, e := range l.Entries {
				if !e.Status.CountsTowardCycle() || !e.End.After(cutoff) {
					continue
				}
				start := e.Start
				if start.Before(cutoff) {
					start = cutoff
				}
				h += e.End.Sub(start).Hours()
			}
			series = append(series, h)
		}
	}
	if !cutoff.IsZero() {
		seed = 0
	}
	return series, seed
}

func providedCycleTotal(t Totals, rule CycleRule, computed float64) float64 {
	switch {
	case rule == Cycle60Hour && t.Cycle60HourTotal != nil:
		return *t.Cycle60HourTotal
	case rule == Cycle70Hour && t.Cycle70HourTotal != nil:
		return *t.Cycle70HourTotal
	}
	return computed
}

func setCycleTotal(t *Totals, rule CycleRule, v float64) {
	switch rule {
	case Cycle60Hour:
		t.Cycle60HourTotal = &v
	case Cycle70Hour:
		t.Cycle70HourTotal = &v
	}
}

// assignViolations files each violation under the day containing its instant.
func assignViolations(logs []DailyLog, vs []Violation) {
	for _, v := range vs {
		for i := range logs {
			dayEnd := nextDay(logs[i].Date)
			if !v.At.Before(logs[i].Date) && v.At.Before(dayEnd) {
				logs[i].Violations = append(logs[i].Violations, v)
				break
			}
		}
	}
}
