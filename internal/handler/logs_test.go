package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moenga-git/ELD-VO/internal/contract"
	"github.com/moenga-git/ELD-VO/internal/domain"
	"github.com/moenga-git/ELD-VO/internal/handler"
	"github.com/moenga-git/ELD-VO/internal/hos"
)

type mockLogServicer struct {
	logs      func(ctx context.Context, tripID uuid.UUID, resolution int) (contract.Logs, error)
	aggregate func(ctx context.Context, days []contract.Day, opts hos.Options) (contract.Logs, error)
}

func (m *mockLogServicer) Logs(ctx context.Context, tripID uuid.UUID, resolution int) (contract.Logs, error) {
	return m.logs(ctx, tripID, resolution)
}
func (m *mockLogServicer) Aggregate(ctx context.Context, days []contract.Day, opts hos.Options) (contract.Logs, error) {
	return m.aggregate(ctx, days, opts)
}

var _ handler.LogServicer = (*mockLogServicer)(nil)

func newLogsHTTPHandler(svc handler.LogServicer) http.Handler {
	return handler.NewServer(nil, svc, nil, quietLogger()).Handler()
}

func emptyLogs(res int) contract.Logs {
	return contract.Logs{ResolutionMinutes: res, Days: []contract.DayLog{}, Cycles: []hos.CycleSummary{}}
}

// ---- GET /trips/{id}/logs --------------------------------------------------

func TestGetTripLogs_200_PassesResolution(t *testing.T) {
	id := uuid.New()
	svc := &mockLogServicer{
		logs: func(_ context.Context, got uuid.UUID, res int) (contract.Logs, error) {
			assert.Equal(t, id, got)
			assert.Equal(t, 15, res)
			out := emptyLogs(res)
			out.TripID = &got
			return out, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/trips/"+id.String()+"/logs?resolution=15", nil)
	rec := httptest.NewRecorder()

	newLogsHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp contract.Logs
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 15, resp.ResolutionMinutes)
	require.NotNil(t, resp.TripID)
	assert.Equal(t, id, *resp.TripID)
}

func TestGetTripLogs_DefaultResolutionIsZero(t *testing.T) {
	svc := &mockLogServicer{
		logs: func(_ context.Context, _ uuid.UUID, res int) (contract.Logs, error) {
			assert.Zero(t, res, "the service picks the configured default")
			return emptyLogs(60), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString()+"/logs", nil)
	rec := httptest.NewRecorder()

	newLogsHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetTripLogs_422_InvalidResolution(t *testing.T) {
	svc := &mockLogServicer{
		logs: func(_ context.Context, _ uuid.UUID, res int) (contract.Logs, error) {
			_, err := hos.ValidateResolution(res)
			return contract.Logs{}, fmt.Errorf("service.LogService.Logs: %w", err)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString()+"/logs?resolution=7", nil)
	rec := httptest.NewRecorder()

	newLogsHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Code)
}

func TestGetTripLogs_404(t *testing.T) {
	svc := &mockLogServicer{
		logs: func(context.Context, uuid.UUID, int) (contract.Logs, error) {
			return contract.Logs{}, fmt.Errorf("service.LogService.Logs: %w", domain.ErrNotFound)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString()+"/logs", nil)
	rec := httptest.NewRecorder()

	newLogsHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTripLogs_400_BadResolution(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/trips/"+uuid.NewString()+"/logs?resolution=hourly", nil)
	rec := httptest.NewRecorder()

	newLogsHTTPHandler(&mockLogServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---- POST /logs/aggregate --------------------------------------------------

const providerDays = `[
	{"date": "2025-06-01", "duty_entries": [
		{"start": "2025-06-01T00:00:00Z", "end": "2025-06-01T10:00:00Z", "duty_status": "OFF_DUTY"},
		{"start": "2025-06-01T10:00:00Z", "end": "2025-06-02T00:00:00Z", "duty_status": "SLEEPER"}
	]}
]`

func TestAggregateLogs_200_BindsOptions(t *testing.T) {
	svc := &mockLogServicer{
		aggregate: func(_ context.Context, days []contract.Day, opts hos.Options) (contract.Logs, error) {
			require.Len(t, days, 1)
			assert.Len(t, days[0].DutyEntries, 2)
			assert.Equal(t, 30, opts.ResolutionMinutes)
			assert.Equal(t, 42.5, opts.SeedHours)
			assert.True(t, opts.TrustProvidedTotals)
			assert.True(t, opts.ApplyRestart)
			require.NotNil(t, opts.Location)
			assert.Equal(t, "America/Chicago", opts.Location.String())
			return emptyLogs(30), nil
		},
	}

	req := httptest.NewRequest(http.MethodPost,
		"/logs/aggregate?resolution=30&seed=42.5&tz=America/Chicago&trust_totals=true&apply_restart=true",
		strings.NewReader(providerDays))
	rec := httptest.NewRecorder()

	newLogsHTTPHandler(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"resolution_minutes":30,"days":[],"cycles":[]}`, rec.Body.String())
}

func TestAggregateLogs_DefaultsLeaveZeroOptions(t *testing.T) {
	svc := &mockLogServicer{
		aggregate: func(_ context.Context, _ []contract.Day, opts hos.Options) (contract.Logs, error) {
			assert.Equal(t, hos.Options{}, opts)
			return emptyLogs(60), nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/logs/aggregate", strings.NewReader(providerDays))
	rec := httptest.NewRecorder()

	newLogsHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAggregateLogs_422_UnknownStatus(t *testing.T) {
	body := `[{"date": "2025-06-01", "duty_entries": [
		{"start": "2025-06-01T00:00:00Z", "end": "2025-06-01T10:00:00Z", "duty_status": "NAPPING"}
	]}]`

	req := httptest.NewRequest(http.MethodPost, "/logs/aggregate", strings.NewReader(body))
	rec := httptest.NewRecorder()

	newLogsHTTPHandler(&mockLogServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Code)
}

func TestAggregateLogs_422_UnknownZone(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/logs/aggregate?tz=Mars/Olympus", strings.NewReader(providerDays))
	rec := httptest.NewRecorder()

	newLogsHTTPHandler(&mockLogServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "Mars/Olympus")
}

func TestAggregateLogs_422_CrossDayEntry(t *testing.T) {
	svc := &mockLogServicer{
		aggregate: func(context.Context, []contract.Day, hos.Options) (contract.Logs, error) {
			return contract.Logs{}, fmt.Errorf("service.LogService.Aggregate: %w",
				&hos.ValidationError{Kind: hos.CrossDayEntry, Msg: "entry crosses midnight"})
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/logs/aggregate", strings.NewReader(providerDays))
	rec := httptest.NewRecorder()

	newLogsHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "entry crosses midnight", decodeError(t, rec).Message)
}

func TestAggregateLogs_400_BadQuery(t *testing.T) {
	for _, q := range []string{"resolution=x", "seed=lots", "trust_totals=maybe"} {
		t.Run(q, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/logs/aggregate?"+q, strings.NewReader(providerDays))
			rec := httptest.NewRecorder()

			newLogsHTTPHandler(&mockLogServicer{}).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAggregateLogs_400_NotAnArray(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/logs/aggregate", strings.NewReader(`{"days":`))
	rec := httptest.NewRecorder()

	newLogsHTTPHandler(&mockLogServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
