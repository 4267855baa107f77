// Package metrics holds the Prometheus collectors for the sync pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncTicks counts completed sync ticks by outcome
	// (ok, error, reauth_required).
	SyncTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lenedabridge_sync_ticks_total",
		Help: "Number of sync ticks, labeled by outcome.",
	}, []string{"status"})

	// ChannelErrors counts per-channel failures that were contained within
	// a tick (forbidden, not_found, unknown_channel, fetch, store).
	ChannelErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lenedabridge_channel_errors_total",
		Help: "Number of contained per-channel errors, labeled by kind.",
	}, []string{"kind"})

	// AppendedEntries counts hour buckets appended to the statistics store.
	AppendedEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lenedabridge_appended_entries_total",
		Help: "Number of statistics entries appended to the store.",
	})

	// TickDuration observes how long a full sync tick takes.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lenedabridge_sync_tick_duration_seconds",
		Help:    "Duration of a full sync tick in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
