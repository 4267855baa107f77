package leneda

import (
	"context"
	"errors"
	"time"

	"github.com/lenedabridge/lenedabridge/pkg/types"
)

var (
	// ErrUnauthorized means the API rejected the credentials. It is fatal
	// to a sync tick and requires reauthentication.
	ErrUnauthorized = errors.New("leneda: unauthorized")
	// ErrForbidden means the credentials are valid but not allowed to read
	// the requested metering point.
	ErrForbidden = errors.New("leneda: forbidden")
	// ErrMeteringPointNotFound means the metering point is unknown to the
	// remote service.
	ErrMeteringPointNotFound = errors.New("leneda: metering point not found")
)

// Client defines the interface for talking to the Leneda energy-data API.
type Client interface {
	// ProbeCredentials validates the configured API token / energy ID pair.
	ProbeCredentials(ctx context.Context) (types.ProbeResult, error)

	// SupportedObisCodes returns the OBIS codes the metering point has
	// recent data for. Used by onboarding tooling, not by the coordinator.
	SupportedObisCodes(ctx context.Context, meteringPoint string) ([]string, error)

	// GetAggregatedData fetches aggregated accumulation data for one
	// metering point and OBIS code over [start, end).
	GetAggregatedData(ctx context.Context, meteringPoint, obisCode string, start, end time.Time, level types.AggregationLevel) (types.AggregatedSeries, error)

	// UpdateAPIKey swaps the API token, e.g. after reauthentication.
	UpdateAPIKey(apiKey string)
}
