package domain

import (
	"github.com/google/uuid"

	"github.com/moenga-git/ELD-VO/internal/hos"
)

// DutyRecord is a persisted duty entry. DayIndex counts calendar days from
// the trip's start date, starting at 0.
type DutyRecord struct {
	ID       int64     `json:"-"`
	TripID   uuid.UUID `json:"-"`
	DayIndex int       `json:"day_index"`
	hos.DutyEntry
}
