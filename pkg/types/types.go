package types

import (
	"time"
)

// MeteringPoint represents one configured metering point and the channels
// selected for it. The set is produced by onboarding/configuration and is
// read-only once handed to the coordinator.
type MeteringPoint struct {
	// ID is the remote-assigned metering point identifier (e.g. LU000001...).
	ID string `json:"id" yaml:"id"`
	// Channels is the ordered list of selected channel identifiers
	// (catalog names, not OBIS codes).
	Channels []string `json:"channels" yaml:"channels"`
}

// AggregatedPoint is a single aggregated time-series value returned by the
// remote service.
type AggregatedPoint struct {
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Value     float64   `json:"value"`
}

// AggregatedSeries is the remote service's response for one aggregated query.
type AggregatedSeries struct {
	Unit   string            `json:"unit"`
	Points []AggregatedPoint `json:"aggregatedTimeSeries"`
}

// AggregationLevel selects the bucket size of an aggregated query.
type AggregationLevel string

const (
	// AggregationHour buckets values per hour.
	AggregationHour AggregationLevel = "Hour"
	// AggregationInfinite collapses the whole range into a single bucket.
	AggregationInfinite AggregationLevel = "Infinite"
)

// TransformationAccumulation sums the underlying readings per bucket. It is
// the only transformation mode this service uses.
const TransformationAccumulation = "Accumulation"

// StatisticEntry is one hour bucket appended to a statistics series: the
// instantaneous state for the hour plus the cumulative sum through it.
type StatisticEntry struct {
	Start time.Time `json:"start"`
	State float64   `json:"state"`
	Sum   float64   `json:"sum"`
}

// StatisticMetadata describes a statistics series to the store.
type StatisticMetadata struct {
	// Name is the display name, "<metering point> <obis code>".
	Name string `json:"name"`
	// Unit is the accumulated unit of measurement (e.g. kWh).
	Unit string `json:"unit"`
	// Source is the external-source namespace owning the series.
	Source string `json:"source"`
}

// ProbeResult is the outcome of a credential probe against the remote
// service.
type ProbeResult int

const (
	// ProbeUnknown means the probe could not determine validity; callers
	// treat the credentials as possibly valid.
	ProbeUnknown ProbeResult = iota
	// ProbeSuccess means the credentials were accepted.
	ProbeSuccess
	// ProbeFailure means the credentials were rejected.
	ProbeFailure
)

func (p ProbeResult) String() string {
	switch p {
	case ProbeSuccess:
		return "success"
	case ProbeFailure:
		return "failure"
	default:
		return "unknown"
	}
}
