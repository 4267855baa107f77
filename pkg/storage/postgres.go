package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/levenlabs/go-lflag"

	"github.com/lenedabridge/lenedabridge/pkg/log"
	"github.com/lenedabridge/lenedabridge/pkg/types"
)

// PostgresProvider implements Store using PostgreSQL via pgx. Entries live
// in a statistics table with a (series_id, period_start) primary key so
// appends of already-stored hours are no-ops.
type PostgresProvider struct {
	pool *pgxpool.Pool
	url  string
}

// configuredPostgres sets up the Postgres provider.
// It registers flags for configuration.
func configuredPostgres() *PostgresProvider {
	url := lflag.String("postgres-url", "", "PostgreSQL connection URL for the statistics store")

	p := &PostgresProvider{}

	lflag.Do(func() {
		p.url = *url
	})

	return p
}

// Validate checks if the provider is properly configured.
func (p *PostgresProvider) Validate() error {
	if p.url == "" {
		return fmt.Errorf("postgres-url is required")
	}
	return nil
}

// Init connects the pool and ensures the schema exists.
func (p *PostgresProvider) Init(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, p.url)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	p.pool = pool

	_, err = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS statistics_meta (
    series_id TEXT PRIMARY KEY,
    name      TEXT NOT NULL,
    unit      TEXT NOT NULL,
    source    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS statistics (
    series_id    TEXT NOT NULL REFERENCES statistics_meta (series_id),
    period_start TIMESTAMPTZ NOT NULL,
    state        DOUBLE PRECISION NOT NULL,
    sum          DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (series_id, period_start)
)`)
	if err != nil {
		return fmt.Errorf("failed to ensure statistics schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *PostgresProvider) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// GetLastEntry returns the most recent stored entry for the series, or nil
// when the series has no data yet.
func (p *PostgresProvider) GetLastEntry(ctx context.Context, seriesID string) (*LastEntry, error) {
	if seriesID == "" {
		return nil, fmt.Errorf("seriesID cannot be empty")
	}

	var start time.Time
	var sum float64
	err := p.pool.QueryRow(ctx, `
SELECT period_start, sum
FROM statistics
WHERE series_id = $1
ORDER BY period_start DESC
LIMIT 1`, seriesID).Scan(&start, &sum)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last entry for %s: %w", seriesID, err)
	}

	return &LastEntry{
		Start: start.UTC(),
		End:   start.UTC().Add(time.Hour),
		Sum:   sum,
	}, nil
}

// AppendEntries upserts the series metadata and batch-inserts the entries.
// Conflicting period starts are left untouched; the reconciliation engine
// only emits hours past the stored high-water mark anyway.
func (p *PostgresProvider) AppendEntries(ctx context.Context, seriesID string, meta types.StatisticMetadata, entries []types.StatisticEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if seriesID == "" {
		return fmt.Errorf("seriesID cannot be empty")
	}

	_, err := p.pool.Exec(ctx, `
INSERT INTO statistics_meta (series_id, name, unit, source)
VALUES ($1, $2, $3, $4)
ON CONFLICT (series_id) DO UPDATE
SET name = EXCLUDED.name,
    unit = EXCLUDED.unit,
    source = EXCLUDED.source`, seriesID, meta.Name, meta.Unit, meta.Source)
	if err != nil {
		return fmt.Errorf("failed to upsert series metadata for %s: %w", seriesID, err)
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO statistics (series_id, period_start, state, sum)
VALUES ($1, $2, $3, $4)
ON CONFLICT (series_id, period_start) DO NOTHING`

	for _, e := range entries {
		batch.Queue(query, seriesID, e.Start.UTC(), e.State, e.Sum)
	}

	res := p.pool.SendBatch(ctx, batch)
	defer res.Close()

	for range entries {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("failed to append entries to %s: %w", seriesID, err)
		}
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"appended statistics entries",
		slog.String("seriesID", seriesID),
		slog.Int("count", len(entries)),
	)
	return nil
}
