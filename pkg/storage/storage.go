package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/lenedabridge/lenedabridge/pkg/types"
)

// LastEntry is the most recent entry stored for a statistics series.
type LastEntry struct {
	// Start is the period start of the last stored hour bucket.
	Start time.Time
	// End is the period end (Start plus one hour).
	End time.Time
	// Sum is the cumulative sum through that bucket.
	Sum float64
}

// Store defines the interface for the external statistics store. Series are
// append-only and addressed by statistic identity; the coordinator never
// rewrites history.
type Store interface {
	// GetLastEntry returns the most recent stored entry for the series, or
	// nil when the series has no data yet.
	GetLastEntry(ctx context.Context, seriesID string) (*LastEntry, error)

	// AppendEntries appends entries to the series under the given
	// metadata. Entries must be strictly after the series' current
	// high-water mark; the reconciliation engine guarantees this.
	AppendEntries(ctx context.Context, seriesID string, meta types.StatisticMetadata, entries []types.StatisticEntry) error

	// Lifecycle
	Close() error
}

// Configured sets up the statistics store based on flags.
func Configured() Store {
	provider := lflag.String("storage-provider", "firestore", "Statistics store provider to use (available: firestore, postgres)")

	var p struct{ Store }

	fs := configuredFirestore()
	pg := configuredPostgres()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Store = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		case "postgres":
			if err := pg.Validate(); err != nil {
				panic(fmt.Sprintf("postgres validation failed: %v", err))
			}
			p.Store = pg
			if err := pg.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("postgres init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
