package coordinator

import (
	"time"

	"github.com/lenedabridge/lenedabridge/pkg/types"
)

// reconcile merges fetched points against the stored cumulative state and
// returns only the entries to append. lastStart is the period start of the
// most recent stored entry and lastSum its cumulative sum; both are taken
// from the same stored entry, or nil when the series is empty.
//
// Points at or before the stored high-water mark are discarded, so
// overlapping or repeated fetch windows over the same remote data never
// double-count and never regress the sum. Dedup is by timestamp, not value:
// a retroactive correction inside already-stored history is not picked up.
func reconcile(points []types.AggregatedPoint, lastStart *time.Time, lastSum float64) []types.StatisticEntry {
	runningSum := lastSum

	var entries []types.StatisticEntry
	for _, p := range points {
		if lastStart != nil && !p.StartedAt.After(*lastStart) {
			continue
		}
		runningSum += p.Value
		entries = append(entries, types.StatisticEntry{
			Start: p.StartedAt.UTC(),
			State: p.Value,
			Sum:   runningSum,
		})
	}
	return entries
}
