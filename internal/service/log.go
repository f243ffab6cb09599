package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/moenga-git/ELD-VO/internal/contract"
	"github.com/moenga-git/ELD-VO/internal/hos"
	"github.com/moenga-git/ELD-VO/internal/metrics"
	"github.com/moenga-git/ELD-VO/internal/repo"
)

// LogOptions configures a LogService. The zero value aggregates hourly in
// UTC without logging or metrics.
type LogOptions struct {
	Location          *time.Location
	DefaultResolution int
	// ApplyRestart drops time before a 34-hour restart from cycle totals.
	ApplyRestart bool
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// LogService turns stored duty entries into daily log sheets.
type LogService struct {
	trips repo.TripRepo
	plans repo.PlanRepo
	cache LogCache
	opts  LogOptions
}

// NewLogService constructs a LogService.
func NewLogService(trips repo.TripRepo, plans repo.PlanRepo, cache LogCache, opts LogOptions) *LogService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &LogService{trips: trips, plans: plans, cache: cache, opts: opts}
}

// Logs returns the daily logs for a trip at resolution minutes (0 selects
// the configured default). The trip's declared cycle hours seed the rolling
// cycle totals. A trip with no entries gets one placeholder day on its start
// date. Results are cached until the trip changes.
func (s *LogService) Logs(ctx context.Context, tripID uuid.UUID, resolution int) (contract.Logs, error) {
	if resolution == 0 {
		resolution = s.opts.DefaultResolution
	}
	res, err := hos.ValidateResolution(resolution)
	if err != nil {
		return contract.Logs{}, fmt.Errorf("service.LogService.Logs: %w", err)
	}

	if out, ok := s.cached(ctx, tripID, res); ok {
		return out, nil
	}

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return contract.Logs{}, fmt.Errorf("service.LogService.Logs: %w", err)
	}
	records, err := s.plans.ListEntries(ctx, tripID)
	if err != nil {
		return contract.Logs{}, fmt.Errorf("service.LogService.Logs: %w", err)
	}

	entries := make([]hos.DutyEntry, len(records))
	for i, r := range records {
		entries[i] = r.DutyEntry
	}
	loc := s.opts.Location
	days := hos.PartitionByDay(hos.SplitAtMidnight(entries, loc), loc)
	if len(days) == 0 {
		s.opts.Logger.WarnContext(ctx, "trip has no duty entries, using placeholder day", "trip_id", tripID)
		days = []hos.DayInput{hos.PlaceholderDay(trip.StartTime.In(loc), loc)}
	}

	out, err := s.aggregate(ctx, days, hos.Options{
		ResolutionMinutes: res,
		Location:          loc,
		SeedHours:         trip.CycleHoursUsed,
		ApplyRestart:      s.opts.ApplyRestart,
	})
	if err != nil {
		return contract.Logs{}, fmt.Errorf("service.LogService.Logs: %w", err)
	}
	out.TripID = &trip.ID

	s.store(ctx, tripID, res, out)
	return out, nil
}

// Aggregate runs the aggregator over provider-supplied days. A zero
// resolution or nil location in opts takes the service defaults.
func (s *LogService) Aggregate(ctx context.Context, days []contract.Day, opts hos.Options) (contract.Logs, error) {
	if opts.ResolutionMinutes == 0 {
		opts.ResolutionMinutes = s.opts.DefaultResolution
	}
	if opts.Location == nil {
		opts.Location = s.opts.Location
	}
	out, err := s.aggregate(ctx, contract.Inputs(days, opts.Location), opts)
	if err != nil {
		return contract.Logs{}, fmt.Errorf("service.LogService.Aggregate: %w", err)
	}
	return out, nil
}

func (s *LogService) aggregate(ctx context.Context, days []hos.DayInput, opts hos.Options) (contract.Logs, error) {
	res, err := hos.ValidateResolution(opts.ResolutionMinutes)
	if err != nil {
		return contract.Logs{}, err
	}
	opts.ResolutionMinutes = res

	started := time.Now()
	result, err := hos.Aggregate(days, opts)
	s.opts.Metrics.ObserveAggregate(time.Since(started))
	if err != nil {
		return contract.Logs{}, err
	}

	for _, d := range result.Days {
		if !d.Diagnostics.OK() {
			s.opts.Logger.WarnContext(ctx, "duty data has gaps or overlaps",
				"date", d.Date.Format(time.DateOnly),
				"gaps", len(d.Diagnostics.Gaps),
				"overlaps", len(d.Diagnostics.Overlaps))
		}
		for _, v := range d.Violations {
			s.opts.Metrics.AddViolations(string(v.Kind), 1)
		}
	}
	return contract.FromResult(result, res), nil
}

func (s *LogService) cached(ctx context.Context, tripID uuid.UUID, res int) (contract.Logs, bool) {
	b, ok, err := s.cache.Get(ctx, tripID, res)
	if err != nil {
		s.opts.Logger.WarnContext(ctx, "log cache read failed", "trip_id", tripID, "error", err)
		s.opts.Metrics.IncLogCache(metrics.CacheError)
		return contract.Logs{}, false
	}
	if !ok {
		s.opts.Metrics.IncLogCache(metrics.CacheMiss)
		return contract.Logs{}, false
	}
	var out contract.Logs
	if err := json.Unmarshal(b, &out); err != nil {
		s.opts.Logger.WarnContext(ctx, "discarding undecodable cached logs", "trip_id", tripID, "error", err)
		s.opts.Metrics.IncLogCache(metrics.CacheError)
		return contract.Logs{}, false
	}
	s.opts.Metrics.IncLogCache(metrics.CacheHit)
	return out, true
}

func (s *LogService) store(ctx context.Context, tripID uuid.UUID, res int, out contract.Logs) {
	b, err := json.Marshal(out)
	if err != nil {
		s.opts.Logger.WarnContext(ctx, "encoding logs for cache failed", "trip_id", tripID, "error", err)
		return
	}
	if err := s.cache.Set(ctx, tripID, res, b); err != nil {
		s.opts.Logger.WarnContext(ctx, "log cache write failed", "trip_id", tripID, "error", err)
	}
}
