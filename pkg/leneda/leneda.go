package leneda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/lenedabridge/lenedabridge/pkg/common"
	"github.com/lenedabridge/lenedabridge/pkg/log"
	"github.com/lenedabridge/lenedabridge/pkg/types"
)

// probeMeteringPoint is a syntactically valid but nonexistent metering
// point. Querying it distinguishes bad credentials (401) from working ones
// (an empty or not-found response).
const probeMeteringPoint = "LU0000000000000000000000000000000000"

var _ Client = (*API)(nil)

// API implements Client against the Leneda REST API.
type API struct {
	client  *http.Client
	baseURL string

	mu       sync.RWMutex
	apiKey   string
	energyID string
}

// Configured sets up the Leneda API client based on flags.
func Configured() *API {
	a := &API{
		client: common.HTTPClient(time.Minute),
	}

	baseURL := lflag.String("leneda-api-url", "https://api.leneda.eu", "Base URL for the Leneda API")
	apiKey := lflag.RequiredString("leneda-api-key", "API token for the Leneda API")
	energyID := lflag.RequiredString("leneda-energy-id", "Energy ID the API token belongs to")

	lflag.Do(func() {
		a.baseURL = *baseURL
		a.apiKey = *apiKey
		a.energyID = *energyID
	})

	return a
}

// UpdateAPIKey swaps the API token used for subsequent requests.
func (a *API) UpdateAPIKey(apiKey string) {
	a.mu.Lock()
	a.apiKey = apiKey
	a.mu.Unlock()
}

// GetAggregatedData fetches aggregated accumulation data for one metering
// point and OBIS code over [start, end).
func (a *API) GetAggregatedData(ctx context.Context, meteringPoint, obisCode string, start, end time.Time, level types.AggregationLevel) (types.AggregatedSeries, error) {
	u, err := url.Parse(a.baseURL)
	if err != nil {
		return types.AggregatedSeries{}, fmt.Errorf("invalid api url: %w", err)
	}
	u.Path, err = url.JoinPath(u.Path, "api", "metering-points", meteringPoint, "time-series", obisCode, "aggregated")
	if err != nil {
		return types.AggregatedSeries{}, err
	}

	params := url.Values{}
	params.Set("startDate", start.UTC().Format(time.RFC3339))
	params.Set("endDate", end.UTC().Format(time.RFC3339))
	params.Set("aggregationLevel", string(level))
	params.Set("transformationMode", types.TransformationAccumulation)
	u.RawQuery = params.Encode()

	var series types.AggregatedSeries
	if err := a.doGet(ctx, u.String(), &series); err != nil {
		return types.AggregatedSeries{}, err
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched aggregated data",
		slog.String("meteringPoint", meteringPoint),
		slog.String("obisCode", obisCode),
		slog.String("level", string(level)),
		slog.Int("count", len(series.Points)),
	)
	return series, nil
}

// ProbeCredentials validates the API token / energy ID pair by querying a
// known-nonexistent metering point. A 401 means the credentials are bad; a
// clean (empty or not-found) response means they work; anything else is
// inconclusive.
func (a *API) ProbeCredentials(ctx context.Context) (types.ProbeResult, error) {
	now := time.Now().UTC()
	_, err := a.GetAggregatedData(ctx, probeMeteringPoint, "1-1:1.29.0", now.Add(-24*time.Hour), now, types.AggregationHour)
	switch {
	case err == nil:
		return types.ProbeSuccess, nil
	case errors.Is(err, ErrUnauthorized):
		return types.ProbeFailure, nil
	case errors.Is(err, ErrMeteringPointNotFound), errors.Is(err, ErrForbidden):
		// The credentials were good enough to be told the point isn't ours.
		return types.ProbeSuccess, nil
	default:
		log.Ctx(ctx).WarnContext(ctx, "credential probe inconclusive", slog.Any("error", err))
		return types.ProbeUnknown, nil
	}
}

// SupportedObisCodes probes each catalog channel for recent data and
// returns the OBIS codes that produced any.
func (a *API) SupportedObisCodes(ctx context.Context, meteringPoint string) ([]string, error) {
	end := time.Now().UTC()
	start := end.Add(-7 * 24 * time.Hour)

	var codes []string
	for _, ch := range types.Channels {
		series, err := a.GetAggregatedData(ctx, meteringPoint, ch.ObisCode, start, end, types.AggregationHour)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrMeteringPointNotFound) {
				return nil, err
			}
			log.Ctx(ctx).WarnContext(
				ctx,
				"obis probe failed",
				slog.String("meteringPoint", meteringPoint),
				slog.String("obisCode", ch.ObisCode),
				slog.Any("error", err),
			)
			continue
		}
		if len(series.Points) > 0 {
			codes = append(codes, ch.ObisCode)
		}
	}
	return codes, nil
}

func (a *API) doGet(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	a.mu.RLock()
	req.Header.Set("X-API-KEY", a.apiKey)
	req.Header.Set("X-ENERGY-ID", a.energyID)
	a.mu.RUnlock()
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrMeteringPointNotFound
	default:
		return fmt.Errorf("leneda api returned status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
