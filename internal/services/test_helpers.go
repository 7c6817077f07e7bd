package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ecorecovery/internal/dataset"
)

// MockDatasetLoader is a mock for the DatasetLoader interface
type MockDatasetLoader struct {
	mock.Mock
}

func (m *MockDatasetLoader) Load(ctx context.Context, ref string) (*dataset.Dataset, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dataset.Dataset), args.Error(1)
}

func (m *MockDatasetLoader) Reload(ctx context.Context, ref string) (*dataset.Dataset, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dataset.Dataset), args.Error(1)
}

// MockDatasetProbe is a mock for the DatasetProbe interface
type MockDatasetProbe struct {
	mock.Mock
}

func (m *MockDatasetProbe) Info(ctx context.Context) (DatasetInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(DatasetInfo), args.Error(1)
}

// MockClientCounter is a mock for the ClientCounter interface
type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	return m.Called().Int(0)
}
