package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lenedabridge/lenedabridge/pkg/leneda"
	"github.com/lenedabridge/lenedabridge/pkg/leneda/lenedamock"
	"github.com/lenedabridge/lenedabridge/pkg/storage"
	"github.com/lenedabridge/lenedabridge/pkg/types"
)

// memStore is an in-memory Store for exercising full ticks.
type memStore struct {
	entries map[string][]types.StatisticEntry
	meta    map[string]types.StatisticMetadata
}

func newMemStore() *memStore {
	return &memStore{
		entries: map[string][]types.StatisticEntry{},
		meta:    map[string]types.StatisticMetadata{},
	}
}

func (s *memStore) GetLastEntry(ctx context.Context, seriesID string) (*storage.LastEntry, error) {
	entries := s.entries[seriesID]
	if len(entries) == 0 {
		return nil, nil
	}
	last := entries[len(entries)-1]
	return &storage.LastEntry{
		Start: last.Start,
		End:   last.Start.Add(time.Hour),
		Sum:   last.Sum,
	}, nil
}

func (s *memStore) AppendEntries(ctx context.Context, seriesID string, meta types.StatisticMetadata, entries []types.StatisticEntry) error {
	s.meta[seriesID] = meta
	s.entries[seriesID] = append(s.entries[seriesID], entries...)
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) totalEntries() int {
	n := 0
	for _, e := range s.entries {
		n += len(e)
	}
	return n
}

func TestRefreshEndToEnd(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	hourStart := now.Add(-26 * time.Hour)

	series := types.AggregatedSeries{
		Unit:   "kW",
		Points: hourlyPoints(hourStart, 1.5, 2.0),
	}

	client := &lenedamock.MockClient{}
	client.On("GetAggregatedData", mock.Anything, "LU000001", "1-1:1.29.0",
		mock.Anything, mock.Anything, types.AggregationHour).Return(series, nil)
	client.On("GetAggregatedData", mock.Anything, "LU000001", "1-1:1.29.0",
		mock.Anything, mock.Anything, types.AggregationInfinite).Return(series, nil)

	store := newMemStore()
	c := New(client, store, []types.MeteringPoint{
		{ID: "LU000001", Channels: []string{"electricity_consumption_active"}},
	})
	c.now = func() time.Time { return now }

	require.NoError(t, c.Refresh(ctx))

	seriesID := StatisticID("LU000001", "1-1:1.29.0")
	entries := store.entries[seriesID]
	require.Len(t, entries, 2)
	assert.Equal(t, 1.5, entries[0].Sum)
	assert.Equal(t, 3.5, entries[1].Sum)

	assert.Equal(t, types.StatisticMetadata{
		Name:   "LU000001 1-1:1.29.0",
		Unit:   "kWh",
		Source: "leneda",
	}, store.meta[seriesID])

	data := c.Data()
	require.Contains(t, data, "LU000001")
	total := data["LU000001"].Values["1-1:1.29.0"]
	require.NotNil(t, total)
	assert.Equal(t, 3.5, *total)
	assert.False(t, c.NeedsReauth())
	client.AssertExpectations(t)
}

func TestRefreshAuthFailureAbortsTick(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	series := types.AggregatedSeries{
		Unit:   "kW",
		Points: hourlyPoints(now.Add(-26*time.Hour), 1.0),
	}

	// the first metering point fetches fine, the second is rejected
	client := &lenedamock.MockClient{}
	client.On("GetAggregatedData", mock.Anything, "LU000001", mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).Return(series, nil)
	client.On("GetAggregatedData", mock.Anything, "LU000002", mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).Return(types.AggregatedSeries{}, leneda.ErrUnauthorized)

	store := newMemStore()
	c := New(client, store, []types.MeteringPoint{
		{ID: "LU000001", Channels: []string{"electricity_consumption_active"}},
		{ID: "LU000002", Channels: []string{"electricity_consumption_active"}},
	})
	c.now = func() time.Time { return now }

	err := c.Refresh(ctx)
	require.ErrorIs(t, err, ErrReauthRequired)

	// nothing was appended, not even for the channel that succeeded
	assert.Zero(t, store.totalEntries())
	assert.True(t, c.NeedsReauth())

	// the result map was not replaced either
	assert.Empty(t, c.Data())
}

func TestRefreshForbiddenContained(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	series := types.AggregatedSeries{
		Unit:   "kW",
		Points: hourlyPoints(now.Add(-26*time.Hour), 2.0),
	}

	client := &lenedamock.MockClient{}
	client.On("GetAggregatedData", mock.Anything, "LU000001", mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).Return(types.AggregatedSeries{}, leneda.ErrForbidden)
	client.On("GetAggregatedData", mock.Anything, "LU000002", mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).Return(series, nil)

	store := newMemStore()
	c := New(client, store, []types.MeteringPoint{
		{ID: "LU000001", Channels: []string{"electricity_consumption_active"}},
		{ID: "LU000002", Channels: []string{"electricity_consumption_active"}},
	})
	c.now = func() time.Time { return now }

	require.NoError(t, c.Refresh(ctx))
	assert.False(t, c.NeedsReauth())

	// LU000002 was unaffected by LU000001's failure
	assert.Len(t, store.entries[StatisticID("LU000002", "1-1:1.29.0")], 1)
	assert.Empty(t, store.entries[StatisticID("LU000001", "1-1:1.29.0")])

	data := c.Data()
	assert.Nil(t, data["LU000001"].Values["1-1:1.29.0"])
	require.NotNil(t, data["LU000002"].Values["1-1:1.29.0"])
}

func TestRefreshUnknownChannelSkipped(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	series := types.AggregatedSeries{
		Unit:   "kW",
		Points: hourlyPoints(now.Add(-26*time.Hour), 1.0),
	}

	client := &lenedamock.MockClient{}
	client.On("GetAggregatedData", mock.Anything, "LU000001", "1-1:1.29.0",
		mock.Anything, mock.Anything, mock.Anything).Return(series, nil)

	store := newMemStore()
	c := New(client, store, []types.MeteringPoint{
		{ID: "LU000001", Channels: []string{"not_a_channel", "electricity_consumption_active"}},
	})
	c.now = func() time.Time { return now }

	require.NoError(t, c.Refresh(ctx))

	data := c.Data()
	require.Contains(t, data, "LU000001")
	assert.NotContains(t, data["LU000001"].Values, "not_a_channel")
	require.NotNil(t, data["LU000001"].Values["1-1:1.29.0"])
	client.AssertExpectations(t)
}

func TestRefreshSkipsUpToDateSeries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	store := newMemStore()
	seriesID := StatisticID("LU000001", "1-1:1.29.0")
	store.entries[seriesID] = []types.StatisticEntry{
		{Start: now.Add(-3 * time.Hour), State: 1.0, Sum: 10.0},
	}

	// only the live-total query should go out
	client := &lenedamock.MockClient{}
	client.On("GetAggregatedData", mock.Anything, "LU000001", "1-1:1.29.0",
		mock.Anything, mock.Anything, types.AggregationInfinite).Return(types.AggregatedSeries{}, nil)

	c := New(client, store, []types.MeteringPoint{
		{ID: "LU000001", Channels: []string{"electricity_consumption_active"}},
	})
	c.now = func() time.Time { return now }

	require.NoError(t, c.Refresh(ctx))
	require.Len(t, store.entries[seriesID], 1)

	// no points for the year means no live value
	assert.Nil(t, c.Data()["LU000001"].Values["1-1:1.29.0"])
	client.AssertExpectations(t)
}

func TestReauthenticated(t *testing.T) {
	client := &lenedamock.MockClient{}
	client.On("UpdateAPIKey", "new-key")

	c := New(client, newMemStore(), nil)
	c.setNeedsReauth(true)

	c.Reauthenticated("new-key")
	assert.False(t, c.NeedsReauth())
	client.AssertExpectations(t)
}
