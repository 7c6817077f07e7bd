package services

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ecorecovery/internal/shared/testutil"
)

func TestHealthService_HealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthServiceWithBuildInfo("1.2.3", "", "", nil, nil, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*MockDatasetProbe, *MockClientCounter)
		wantStatus string
		wantData   string
	}{
		{
			name: "dataset loaded",
			setup: func(p *MockDatasetProbe, c *MockClientCounter) {
				p.On("Info", mock.Anything).Return(DatasetInfo{Records: 4}, nil)
				c.On("ClientCount").Return(2)
			},
			wantStatus: "ready",
			wantData:   "ready",
		},
		{
			name: "dataset unavailable",
			setup: func(p *MockDatasetProbe, c *MockClientCounter) {
				p.On("Info", mock.Anything).Return(DatasetInfo{}, errors.New("fetch failed"))
				c.On("ClientCount").Return(0)
			},
			wantStatus: "not_ready",
			wantData:   "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := new(MockDatasetProbe)
			hub := new(MockClientCounter)
			tt.setup(probe, hub)

			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthServiceWithBuildInfo("1.0.0", "", "", probe, hub, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)

			data, ok := status.Services["data"].(ServiceHealth)
			require.True(t, ok)
			assert.Equal(t, tt.wantData, data.Status)
			if tt.wantData == "ready" {
				require.NotNil(t, data.Dataset)
				assert.Equal(t, 4, data.Dataset.Records)
			} else {
				assert.Contains(t, data.Message, "fetch failed")
			}

			ws, ok := status.Services["websocket"].(ServiceHealth)
			require.True(t, ok)
			assert.Equal(t, "ready", ws.Status)

			probe.AssertExpectations(t)
			hub.AssertExpectations(t)
		})
	}
}

func TestHealthService_ReadinessWithoutDependencies(t *testing.T) {
	hs := NewHealthServiceWithBuildInfo("1.0.0", "", "", nil, nil, nil)
	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthServiceWithBuildInfo("1.0.0", "2026-01-01T00:00:00Z", "abc123", nil, nil, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Equal(t, runtime.Version(), live.Runtime["go_version"])

	v := hs.Version()
	assert.Equal(t, "1.0.0", v["version"])
	assert.Equal(t, "abc123", v["build_id"])
	assert.Equal(t, "2026-01-01T00:00:00Z", v["build_time"])

	plain := NewHealthServiceWithBuildInfo("1.0.0", "", "", nil, nil, nil).Version()
	assert.NotContains(t, plain, "build_id")
}
