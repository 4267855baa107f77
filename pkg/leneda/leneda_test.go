package leneda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenedabridge/lenedabridge/pkg/common"
	"github.com/lenedabridge/lenedabridge/pkg/types"
)

func testAPI(baseURL string) *API {
	return &API{
		client:   common.HTTPClient(5 * time.Second),
		baseURL:  baseURL,
		apiKey:   "test-key",
		energyID: "LU-ENERGY-1",
	}
}

func TestGetAggregatedData(t *testing.T) {
	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/metering-points/LU000001/time-series/1-1:1.29.0/aggregated", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "LU-ENERGY-1", r.Header.Get("X-ENERGY-ID"))

		q := r.URL.Query()
		assert.Equal(t, start.Format(time.RFC3339), q.Get("startDate"))
		assert.Equal(t, end.Format(time.RFC3339), q.Get("endDate"))
		assert.Equal(t, "Hour", q.Get("aggregationLevel"))
		assert.Equal(t, "Accumulation", q.Get("transformationMode"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"unit": "kW",
			"aggregatedTimeSeries": [
				{"value": 1.5, "startedAt": "2026-03-09T00:00:00Z", "endedAt": "2026-03-09T01:00:00Z"},
				{"value": 2.0, "startedAt": "2026-03-09T01:00:00Z", "endedAt": "2026-03-09T02:00:00Z"}
			]
		}`))
	}))
	defer server.Close()

	api := testAPI(server.URL)
	series, err := api.GetAggregatedData(context.Background(), "LU000001", "1-1:1.29.0", start, end, types.AggregationHour)
	require.NoError(t, err)

	assert.Equal(t, "kW", series.Unit)
	require.Len(t, series.Points, 2)
	assert.Equal(t, 1.5, series.Points[0].Value)
	assert.Equal(t, start, series.Points[0].StartedAt)
	assert.Equal(t, 2.0, series.Points[1].Value)
}

func TestGetAggregatedDataStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		err    error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrMeteringPointNotFound},
	}
	for _, tc := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		api := testAPI(server.URL)
		now := time.Now().UTC()
		_, err := api.GetAggregatedData(context.Background(), "LU000001", "1-1:1.29.0", now.Add(-time.Hour), now, types.AggregationHour)
		assert.ErrorIs(t, err, tc.err, "status %d", tc.status)
		server.Close()
	}
}

func TestGetAggregatedDataUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	api := testAPI(server.URL)
	now := time.Now().UTC()
	_, err := api.GetAggregatedData(context.Background(), "LU000001", "1-1:1.29.0", now.Add(-time.Hour), now, types.AggregationHour)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestProbeCredentials(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   types.ProbeResult
	}{
		{"unauthorized", http.StatusUnauthorized, types.ProbeFailure},
		{"not found", http.StatusNotFound, types.ProbeSuccess},
		{"forbidden", http.StatusForbidden, types.ProbeSuccess},
		{"empty ok", http.StatusOK, types.ProbeSuccess},
		{"server error", http.StatusInternalServerError, types.ProbeUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				if tc.status == http.StatusOK {
					_, _ = w.Write([]byte(`{"unit": "", "aggregatedTimeSeries": []}`))
				}
			}))
			defer server.Close()

			api := testAPI(server.URL)
			result, err := api.ProbeCredentials(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, result)
		})
	}
}

func TestUpdateAPIKey(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		_, _ = w.Write([]byte(`{"unit": "", "aggregatedTimeSeries": []}`))
	}))
	defer server.Close()

	api := testAPI(server.URL)
	api.UpdateAPIKey("rotated")

	now := time.Now().UTC()
	_, err := api.GetAggregatedData(context.Background(), "LU000001", "1-1:1.29.0", now.Add(-time.Hour), now, types.AggregationHour)
	require.NoError(t, err)
	assert.Equal(t, "rotated", gotKey)
}

func TestSupportedObisCodes(t *testing.T) {
	withData := map[string]bool{
		"1-1:1.29.0":    true,
		"7-1:99.23.15":  true,
		"7-20:99.33.17": true,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// path is /api/metering-points/{mp}/time-series/{obis}/aggregated
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		require.Len(t, parts, 6)
		obis := parts[4]

		w.Header().Set("Content-Type", "application/json")
		if withData[obis] {
			_, _ = w.Write([]byte(`{"unit": "kW", "aggregatedTimeSeries": [{"value": 1, "startedAt": "2026-03-09T00:00:00Z", "endedAt": "2026-03-09T01:00:00Z"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"unit": "", "aggregatedTimeSeries": []}`))
	}))
	defer server.Close()

	api := testAPI(server.URL)
	codes, err := api.SupportedObisCodes(context.Background(), "LU000001")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1-1:1.29.0", "7-1:99.23.15", "7-20:99.33.17"}, codes)
}
