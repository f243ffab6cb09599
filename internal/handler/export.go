package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/moenga-git/ELD-VO/internal/contract"
	"github.com/moenga-git/ELD-VO/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_start", "cycle_hours_used", "day_index",
	"start", "end", "duty_status", "hours", "note", "rule_applied",
}

// GetExport handles GET /trips/{id}/export.
// It returns one row per duty entry. Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	var format *string
	if err := queryParam(r, "format", &format); err != nil {
		s.fail(w, r, err, "")
		return
	}
	wantCSV := false
	if format != nil {
		switch *format {
		case "csv":
			wantCSV = true
		case "json":
		default:
			s.fail(w, r, fmt.Errorf("%w: format must be json or csv", errBadRequest), "")
			return
		}
	}

	rows, err := s.export.Export(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, tripNotFound)
		return
	}

	if wantCSV {
		writeCSV(w, id, rows)
		return
	}
	out := make([]contract.ExportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domainRowToContract(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV streams rows as an attachment named after the trip.
func writeCSV(w http.ResponseWriter, id uuid.UUID, rows []domain.ExportRow) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="trip-%s.csv"`, id))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeaders)
	for _, r := range rows {
		_ = cw.Write(domainRowToCSVRecord(r))
	}
	cw.Flush()
}

// domainRowToContract maps a domain.ExportRow to its JSON shape.
// Empty note and rule fields are omitted.
func domainRowToContract(r domain.ExportRow) contract.ExportRow {
	tripID, _ := uuid.Parse(r.TripID)
	row := contract.ExportRow{
		TripID:         tripID,
		TripStart:      r.TripStart,
		CycleHoursUsed: r.CycleHoursUsed,
		DayIndex:       r.DayIndex,
		Start:          r.Start,
		End:            r.End,
		DutyStatus:     r.Status,
		Hours:          r.Hours,
	}
	if r.Note != "" {
		row.Note = &r.Note
	}
	if r.RuleApplied != "" {
		row.RuleApplied = &r.RuleApplied
	}
	return row
}

// domainRowToCSVRecord encodes a domain.ExportRow as a flat string slice.
func domainRowToCSVRecord(r domain.ExportRow) []string {
	return []string{
		r.TripID,
		r.TripStart.UTC().Format(time.RFC3339),
		strconv.FormatFloat(r.CycleHoursUsed, 'f', -1, 64),
		strconv.Itoa(r.DayIndex),
		r.Start.UTC().Format(time.RFC3339),
		r.End.UTC().Format(time.RFC3339),
		r.Status,
		strconv.FormatFloat(r.Hours, 'f', 2, 64),
		r.Note,
		r.RuleApplied,
	}
}
