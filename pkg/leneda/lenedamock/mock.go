package lenedamock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lenedabridge/lenedabridge/pkg/leneda"
	"github.com/lenedabridge/lenedabridge/pkg/types"
)

type MockClient struct {
	mock.Mock
}

var _ leneda.Client = (*MockClient)(nil)

func (m *MockClient) ProbeCredentials(ctx context.Context) (types.ProbeResult, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).(types.ProbeResult), args.Error(1)
	}
	return types.ProbeUnknown, nil
}

func (m *MockClient) SupportedObisCodes(ctx context.Context, meteringPoint string) ([]string, error) {
	args := m.Called(ctx, meteringPoint)
	if len(args) > 0 {
		codes, _ := args.Get(0).([]string)
		return codes, args.Error(1)
	}
	return nil, nil
}

func (m *MockClient) GetAggregatedData(ctx context.Context, meteringPoint, obisCode string, start, end time.Time, level types.AggregationLevel) (types.AggregatedSeries, error) {
	args := m.Called(ctx, meteringPoint, obisCode, start, end, level)
	if len(args) > 0 {
		return args.Get(0).(types.AggregatedSeries), args.Error(1)
	}
	return types.AggregatedSeries{}, nil
}

func (m *MockClient) UpdateAPIKey(apiKey string) {
	m.Called(apiKey)
}
