package contract_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moenga-git/ELD-VO/internal/contract"
	"github.com/moenga-git/ELD-VO/internal/hos"
)

const inputDay = `[{
	"date": "2025-03-10",
	"duty_entries": [
		{"start": "2025-03-10T00:00:00Z", "end": "2025-03-10T08:00:00Z", "duty_status": "OFF_DUTY"},
		{"start": "2025-03-10T08:00:00Z", "end": "2025-03-10T18:00:00Z", "duty_status": "DRIVING", "note": "I-80"},
		{"start": "2025-03-10T18:00:00Z", "end": "2025-03-11T00:00:00Z", "duty_status": "OFF_DUTY"}
	]
}]`

func TestInputs_DecodesProviderDays(t *testing.T) {
	var days []contract.Day
	require.NoError(t, json.Unmarshal([]byte(inputDay), &days))

	in := contract.Inputs(days, nil)

	require.Len(t, in, 1)
	assert.True(t, in[0].Date.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	require.Len(t, in[0].Entries, 3)
	assert.Equal(t, hos.Driving, in[0].Entries[1].Status)
	assert.Equal(t, "I-80", in[0].Entries[1].Note)
	assert.Nil(t, in[0].Totals)
}

func TestInputs_UsesLocationForDate(t *testing.T) {
	loc := time.FixedZone("CST", -6*3600)
	var days []contract.Day
	require.NoError(t, json.Unmarshal([]byte(`[{"date":"2025-03-10","duty_entries":[]}]`), &days))

	in := contract.Inputs(days, loc)

	assert.Equal(t, loc, in[0].Date.Location())
	assert.Equal(t, 0, in[0].Date.Hour())
}

func TestDay_RejectsUnknownStatus(t *testing.T) {
	var days []contract.Day
	err := json.Unmarshal([]byte(`[{"date":"2025-03-10","duty_entries":[
		{"start":"2025-03-10T00:00:00Z","end":"2025-03-10T01:00:00Z","duty_status":"NAPPING"}]}]`), &days)

	assert.Error(t, err)
}

func TestFromResult_OutputShape(t *testing.T) {
	var days []contract.Day
	require.NoError(t, json.Unmarshal([]byte(inputDay), &days))
	res, err := hos.Aggregate(contract.Inputs(days, nil), hos.Options{ResolutionMinutes: 60})
	require.NoError(t, err)

	out := contract.FromResult(res, 60)
	b, err := json.Marshal(out)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.EqualValues(t, 60, decoded["resolution_minutes"])
	assert.NotContains(t, decoded, "trip_id")

	day := decoded["days"].([]any)[0].(map[string]any)
	assert.Equal(t, "2025-03-10", day["date"])
	assert.Len(t, day["grid"], 24)
	first := day["grid"].([]any)[8].(map[string]any)
	assert.Equal(t, "2025-03-10T08:00:00Z", first["bucketStart"])
	assert.Equal(t, "DRIVING", first["status"])

	totals := day["totals"].(map[string]any)
	assert.EqualValues(t, 10, totals["driving_hours"])
	assert.EqualValues(t, 14, totals["off_duty_hours"])
	assert.Contains(t, totals, "cycle_70_hour_total")

	violations := day["violations"].([]any)
	assert.NotEmpty(t, violations, "10h of driving without a break is flagged")
	assert.Len(t, decoded["cycles"], 2)
}

func TestFromResult_EmptyResultHasArrays(t *testing.T) {
	out := contract.FromResult(hos.Result{}, 60)

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"resolution_minutes":60,"days":[],"cycles":[]}`, string(b))
}
