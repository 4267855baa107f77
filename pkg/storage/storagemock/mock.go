package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lenedabridge/lenedabridge/pkg/storage"
	"github.com/lenedabridge/lenedabridge/pkg/types"
)

type MockStore struct {
	mock.Mock
}

var _ storage.Store = (*MockStore)(nil)

func (m *MockStore) GetLastEntry(ctx context.Context, seriesID string) (*storage.LastEntry, error) {
	args := m.Called(ctx, seriesID)
	if len(args) > 0 {
		last, _ := args.Get(0).(*storage.LastEntry)
		return last, args.Error(1)
	}
	return nil, nil
}

func (m *MockStore) AppendEntries(ctx context.Context, seriesID string, meta types.StatisticMetadata, entries []types.StatisticEntry) error {
	args := m.Called(ctx, seriesID, meta, entries)
	if len(args) > 0 {
		return args.Error(0)
	}
	return nil
}

func (m *MockStore) Close() error {
	args := m.Called()
	if len(args) > 0 {
		return args.Error(0)
	}
	return nil
}
