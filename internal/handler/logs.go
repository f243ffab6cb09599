package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/moenga-git/ELD-VO/internal/contract"
	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/hos"
)

// GetTripLogs handles GET /trips/{id}/logs.
// ?resolution= picks the grid bucket size in minutes; it must divide 1440.
func (s *Server) GetTripLogs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	var resolution *int
	if err := queryParam(r, "resolution", &resolution); err != nil {
		s.fail(w, r, err, "")
		return
	}

	out, err := s.logs.Logs(r.Context(), id, deref(resolution))
	if err != nil {
		s.fail(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// AggregateLogs handles POST /logs/aggregate.
// The body is a JSON array of provider days. Query parameters:
//
//	resolution     grid bucket size in minutes
//	seed           cycle hours already used before the first day
//	tz             IANA zone used for calendar days
//	trust_totals   keep totals supplied with a day instead of recomputing
//	apply_restart  drop time before a 34-hour restart from cycle totals
func (s *Server) AggregateLogs(w http.ResponseWriter, r *http.Request) {
	var (
		resolution   *int
		seed         *float64
		tz           *string
		trustTotals  *bool
		applyRestart *bool
	)
	for name, dst := range map[string]any{
		"resolution":    &resolution,
		"seed":          &seed,
		"tz":            &tz,
		"trust_totals":  &trustTotals,
		"apply_restart": &applyRestart,
	} {
		if err := queryParam(r, name, dst); err != nil {
			s.fail(w, r, err, "")
			return
		}
	}

	opts := hos.Options{
		ResolutionMinutes:   deref(resolution),
		SeedHours:           deref(seed),
		TrustProvidedTotals: deref(trustTotals),
		ApplyRestart:        deref(applyRestart),
	}
	if tz != nil {
		loc, err := time.LoadLocation(*tz)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: unknown time zone %q", domain.ErrValidation, *tz), "")
			return
		}
		opts.Location = loc
	}

	var days []contract.Day
	if err := decodeBody(r, &days); err != nil {
		s.fail(w, r, err, "")
		return
	}

	out, err := s.logs.Aggregate(r.Context(), days, opts)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
