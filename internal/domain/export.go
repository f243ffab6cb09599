package domain

import "time"

// ExportRow is a single row in the flat trip export: one row per duty entry,
// with trip fields repeated on every row. A trip with no entries yields no rows.
type ExportRow struct {
	TripID    string
	TripStart time.Time
	// CycleHoursUsed is the driver's declared cycle time at trip creation.
	CycleHoursUsed float64

	DayIndex    int
	Start       time.Time
	End         time.Time
	Status      string
	Hours       float64
	Note        string
	RuleApplied string
}
