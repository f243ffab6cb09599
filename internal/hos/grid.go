package hos

import (
	"encoding/json"
	"sort"
	"time"
)

// DefaultResolutionMinutes is the grid resolution used when none is given.
const DefaultResolutionMinutes = 60

// Bucket is one fixed-width cell of a day's status grid, tagged with the
// status active at its start instant.
type Bucket struct {
	Start  time.Time  `json:"bucketStart"`
	Status DutyStatus `json:"status"`
}

// UnmarshalJSON accepts UNKNOWN, which only a bucket may carry.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start  time.Time `json:"bucketStart"`
		Status string    `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s := DutyStatus(raw.Status)
	if s != Unknown && !s.Valid() {
		return invalid(UnknownStatus, "unknown bucket status %q", raw.Status)
	}
	b.Start, b.Status = raw.Start, s
	return nil
}

// Diagnostics carries non-fatal data-quality findings for a day.
// A day is well formed when both slices are empty.
type Diagnostics struct {
	Gaps     []Interval `json:"gaps,omitempty"`
	Overlaps []Interval `json:"overlaps,omitempty"`
}

// OK reports whether the day had full, non-overlapping coverage.
func (d Diagnostics) OK() bool {
	return len(d.Gaps) == 0 && len(d.Overlaps) == 0
}

// ValidateResolution returns the effective resolution for resolutionMinutes.
// Zero selects DefaultResolutionMinutes.
func ValidateResolution(resolutionMinutes int) (int, error) {
	if resolutionMinutes == 0 {
		return DefaultResolutionMinutes, nil
	}
	if resolutionMinutes < 0 || resolutionMinutes > MinutesPerDay || MinutesPerDay%resolutionMinutes != 0 {
		return 0, invalid(InvalidResolution, "resolution %d minutes must be positive and evenly divide %d", resolutionMinutes, MinutesPerDay)
	}
	return resolutionMinutes, nil
}

// BuildGrid samples the day containing day, from its local midnight to the
// next, at resolutionMinutes spacing.
//
// Each bucket takes the status of the entry whose [start, end) contains the
// bucket's start instant. Uncovered instants become Unknown; when several
// entries contain the instant the one with the latest start wins. Both
// conditions are reported in the returned Diagnostics rather than as errors.
// The result depends only on the set of entries, not their order.
func BuildGrid(day time.Time, entries []DutyEntry, resolutionMinutes int) ([]Bucket, Diagnostics, error) {
	res, err := ValidateResolution(resolutionMinutes)
	if err != nil {
		return nil, Diagnostics{}, err
	}
	dayStart, dayEnd := dayBounds(day)
	if err := validateInDay(dayStart, dayEnd, entries, false); err != nil {
		return nil, Diagnostics{}, err
	}

	sorted := sortedCopy(entries)
	step := time.Duration(res) * time.Minute
	// 24 buckets at hourly resolution, 23 or 25 when the zone shifts its offset.
	n := int((dayEnd.Sub(dayStart) + step - 1) / step)
	grid := make([]Bucket, n)
	for i := range n {
		t := dayStart.Add(time.Duration(i) * step)
		grid[i] = Bucket{Start: t, Status: statusAt(sorted, t)}
	}
	return grid, coverage(dayStart, dayEnd, sorted), nil
}

// statusAt finds the latest-starting entry containing t. sorted must be
// ordered by sortedCopy.
func statusAt(sorted []DutyEntry, t time.Time) DutyStatus {
	// Index of the first entry starting after t; candidates lie before it.
	idx := sort.Search(len(sorted), func(i int) bool { return sorted[i].Start.After(t) })
	for i := idx - 1; i >= 0; i-- {
		if sorted[i].Contains(t) {
			return sorted[i].Status
		}
	}
	return Unknown
}

// coverage walks the sorted entries once and records every gap and overlap
// inside [dayStart, dayEnd).
func coverage(dayStart, dayEnd time.Time, sorted []DutyEntry) Diagnostics {
	var d Diagnostics
	cursor := dayStart
	for _, e := range sorted {
		if e.Start.After(cursor) {
			d.Gaps = append(d.Gaps, Interval{Start: cursor, End: minTime(e.Start, dayEnd)})
		} else if e.Start.Before(cursor) {
			d.Overlaps = append(d.Overlaps, Interval{Start: e.Start, End: minTime(e.End, cursor)})
		}
		if e.End.After(cursor) {
			cursor = e.End
		}
	}
	if cursor.Before(dayEnd) {
		d.Gaps = append(d.Gaps, Interval{Start: cursor, End: dayEnd})
	}
	return d
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
