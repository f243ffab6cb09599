package hos

import (
	"cmp"
	"slices"
	"time"
)

// MinutesPerDay is the length of a regular log-sheet day. Days on which a
// zone changes its UTC offset are 23 or 25 hours long; their bounds always
// run from one local midnight to the next.
const MinutesPerDay = 24 * 60

// DutyEntry is one continuous interval of a single duty status.
type DutyEntry struct {
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Status      DutyStatus `json:"duty_status"`
	Note        string     `json:"note,omitempty"`
	RuleApplied string     `json:"rule_applied,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
}

// Duration returns End - Start.
func (e DutyEntry) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Hours returns the entry length in fractional hours.
func (e DutyEntry) Hours() float64 {
	return e.Duration().Hours()
}

// Contains reports whether t lies in [Start, End).
func (e DutyEntry) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// Interval is a half-open time range used for diagnostics.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DayStart returns midnight of the calendar day containing t, in t's location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayBounds returns [midnight, next midnight) for the day containing day,
// in day's location.
func dayBounds(day time.Time) (time.Time, time.Time) {
	start := DayStart(day)
	return start, nextDay(start)
}

// nextDay returns the local midnight following dayStart.
func nextDay(dayStart time.Time) time.Time {
	end := dayStart.AddDate(0, 0, 1)
	if !end.After(dayStart) {
		// Zones that skip midnight can normalise it backwards.
		end = dayStart.Add(MinutesPerDay * time.Minute)
	}
	return end
}

// sortedCopy returns entries ordered by start, then end, then status, so that
// any permutation of the same input sorts identically.
func sortedCopy(entries []DutyEntry) []DutyEntry {
	out := slices.Clone(entries)
	slices.SortFunc(out, func(a, b DutyEntry) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		if c := a.End.Compare(b.End); c != 0 {
			return c
		}
		return cmp.Compare(a.Status, b.Status)
	})
	return out
}

// validateEntry checks the per-entry invariants shared by every operation.
func validateEntry(i int, e DutyEntry) error {
	if !e.Status.Valid() {
		return invalid(UnknownStatus, "entry %d: unknown duty status %q", i, e.Status)
	}
	if !e.End.After(e.Start) {
		return invalid(InvertedInterval, "entry %d: end %s must be after start %s",
			i, e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
	}
	return nil
}

// validateInDay checks that every entry starts inside [dayStart, dayEnd).
// When strictEnd is set, entries must also end by dayEnd.
func validateInDay(dayStart, dayEnd time.Time, entries []DutyEntry, strictEnd bool) error {
	for i, e := range entries {
		if err := validateEntry(i, e); err != nil {
			return err
		}
		if e.Start.Before(dayStart) || !e.Start.Before(dayEnd) {
			return invalid(EntryOutsideDay, "entry %d: start %s is outside day %s",
				i, e.Start.Format(time.RFC3339), dayStart.Format(time.DateOnly))
		}
		if strictEnd && e.End.After(dayEnd) {
			return invalid(CrossDayEntry, "entry %d: end %s crosses the day boundary %s; split at midnight first",
				i, e.End.Format(time.RFC3339), dayEnd.Format(time.RFC3339))
		}
	}
	return nil
}

// SplitAtMidnight cuts entries that span midnight (in loc) into per-day
// segments. Annotations are copied onto every segment. Invalid entries are
// returned unchanged so the aggregator can report them.
func SplitAtMidnight(entries []DutyEntry, loc *time.Location) []DutyEntry {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]DutyEntry, 0, len(entries))
	for _, e := range entries {
		if !e.End.After(e.Start) {
			out = append(out, e)
			continue
		}
		start := e.Start.In(loc)
		end := e.End.In(loc)
		for {
			_, boundary := dayBounds(start)
			if !boundary.After(start) || !end.After(boundary) {
				seg := e
				seg.Start, seg.End = start, end
				out = append(out, seg)
				break
			}
			seg := e
			seg.Start, seg.End = start, boundary
			out = append(out, seg)
			start = boundary
		}
	}
	return out
}

// PartitionByDay groups entries by the calendar date (in loc) of their start.
// Days are returned in chronological order; entries within a day are sorted.
func PartitionByDay(entries []DutyEntry, loc *time.Location) []DayInput {
	if loc == nil {
		loc = time.UTC
	}
	byDay := make(map[time.Time][]DutyEntry)
	var days []time.Time
	for _, e := range entries {
		d := DayStart(e.Start.In(loc))
		if _, ok := byDay[d]; !ok {
			days = append(days, d)
		}
		e.Start, e.End = e.Start.In(loc), e.End.In(loc)
		byDay[d] = append(byDay[d], e)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })

	out := make([]DayInput, 0, len(days))
	for _, d := range days {
		out = append(out, DayInput{Date: d, Entries: sortedCopy(byDay[d])})
	}
	return out
}

// PlaceholderDay synthesises a day for when the provider has nothing to
// return: a single OFF_DUTY entry covering the whole day.
func PlaceholderDay(date time.Time, loc *time.Location) DayInput {
	if loc == nil {
		loc = time.UTC
	}
	start, end := dayBounds(time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc))
	return DayInput{
		Date: start,
		Entries: []DutyEntry{{
			Start:       start,
			End:         end,
			Status:      OffDuty,
			Note:        "No duty data available",
			Explanation: "Placeholder day synthesised because no duty entries were recorded",
		}},
		Synthesized: true,
	}
}
