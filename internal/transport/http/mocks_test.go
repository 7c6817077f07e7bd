package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ecorecovery/internal/analytics"
	"ecorecovery/internal/charts"
	"ecorecovery/internal/dashboard"
	apierrors "ecorecovery/internal/errors"
	"ecorecovery/internal/exporter"
	appmiddleware "ecorecovery/internal/middleware"
	"ecorecovery/internal/services"
	"ecorecovery/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) DefaultTopN() int {
	return m.Called().Int(0)
}

func (m *MockDashboardService) View(ctx context.Context, q services.Query) (dashboard.View, error) {
	args := m.Called(q)
	return args.Get(0).(dashboard.View), args.Error(1)
}

func (m *MockDashboardService) Filters(ctx context.Context) ([]dashboard.Filter, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.Filter), args.Error(1)
}

func (m *MockDashboardService) Records(ctx context.Context, q services.Query, limit int) ([]domain.Record, error) {
	args := m.Called(q, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *MockDashboardService) Summary(ctx context.Context, q services.Query) (analytics.Summary, error) {
	args := m.Called(q)
	return args.Get(0).(analytics.Summary), args.Error(1)
}

func (m *MockDashboardService) Chart(ctx context.Context, kind charts.Kind, format charts.Format, q services.Query) (services.Image, error) {
	args := m.Called(kind, format, q)
	return args.Get(0).(services.Image), args.Error(1)
}

func (m *MockDashboardService) Export(ctx context.Context, format exporter.Format, q services.Query) (services.Download, error) {
	args := m.Called(format, q)
	return args.Get(0).(services.Download), args.Error(1)
}

func (m *MockDashboardService) Refresh(ctx context.Context) (services.DatasetInfo, error) {
	args := m.Called()
	return args.Get(0).(services.DatasetInfo), args.Error(1)
}

func (m *MockDashboardService) Info(ctx context.Context) (services.DatasetInfo, error) {
	args := m.Called()
	return args.Get(0).(services.DatasetInfo), args.Error(1)
}

type testDeps struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validator    *appmiddleware.QueryValidator
}

func newTestDeps() testDeps {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eh := apierrors.NewErrorHandler(logger, false)
	return testDeps{
		logger:       logger,
		errorHandler: eh,
		validator:    appmiddleware.NewQueryValidator(logger, eh),
	}
}

// newAPIRouter mounts the dashboard routes the way the application does.
func newAPIRouter(svc DashboardServiceInterface) http.Handler {
	deps := newTestDeps()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api", NewDashboardHandler(svc, deps.validator, deps.logger, deps.errorHandler).Routes())
	return r
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}
