package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/repo"
)

// ExportService assembles a flat export of a trip's duty entries.
type ExportService struct {
	trips repo.TripRepo
	plans repo.PlanRepo
}

// NewExportService constructs an ExportService backed by the provided repos.
func NewExportService(trips repo.TripRepo, plans repo.PlanRepo) *ExportService {
	return &ExportService{trips: trips, plans: plans}
}

// Export returns one ExportRow per duty entry of the trip, in start order.
// A trip with no entries yields an empty, non-nil slice.
func (s *ExportService) Export(ctx context.Context, tripID uuid.UUID) ([]domain.ExportRow, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	records, err := s.plans.ListEntries(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, domain.ExportRow{
			TripID:         trip.ID.String(),
			TripStart:      trip.StartTime,
			CycleHoursUsed: trip.CycleHoursUsed,
			DayIndex:       r.DayIndex,
			Start:          r.Start,
			End:            r.End,
			Status:         string(r.Status),
			Hours:          math.Round(r.Hours()*100) / 100,
			Note:           r.Note,
			RuleApplied:    r.RuleApplied,
		})
	}
	return rows, nil
}
