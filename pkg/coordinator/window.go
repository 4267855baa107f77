package coordinator

import "time"

// trackedHistoryStart is the baseline for series with no stored data yet.
// The remote service holds no data older than this.
var trackedHistoryStart = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// lookback is re-fetched in front of the baseline every tick to absorb
// late-arriving corrections. The reconciliation engine's high-water mark
// keeps the overlap from double-counting.
const lookback = 24 * time.Hour

// window is a half-open [Start, End) remote query range.
type window struct {
	Start time.Time
	End   time.Time
}

// planWindow computes the fetch window for one series. lastEnd is the end
// timestamp of the most recent stored entry, or nil when the series has no
// data yet. ok is false when there cannot be a new complete hour bucket to
// fetch and the channel should be skipped this tick.
func planWindow(lastEnd *time.Time, now time.Time) (window, bool) {
	baseline := trackedHistoryStart
	if lastEnd != nil {
		baseline = lastEnd.UTC()
	}
	end := now.UTC()
	if end.Add(-lookback).Before(baseline) {
		return window{}, false
	}
	return window{Start: baseline.Add(-lookback), End: end}, true
}
