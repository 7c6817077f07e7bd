package http

import (
	"context"

	"ecorecovery/internal/analytics"
	"ecorecovery/internal/charts"
	"ecorecovery/internal/dashboard"
	"ecorecovery/internal/exporter"
	"ecorecovery/internal/services"
	"ecorecovery/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations served over HTTP
type DashboardServiceInterface interface {
	DefaultTopN() int
	View(ctx context.Context, q services.Query) (dashboard.View, error)
	Filters(ctx context.Context) ([]dashboard.Filter, error)
	Records(ctx context.Context, q services.Query, limit int) ([]domain.Record, error)
	Summary(ctx context.Context, q services.Query) (analytics.Summary, error)
	Chart(ctx context.Context, kind charts.Kind, format charts.Format, q services.Query) (services.Image, error)
	Export(ctx context.Context, format exporter.Format, q services.Query) (services.Download, error)
	Refresh(ctx context.Context) (services.DatasetInfo, error)
	Info(ctx context.Context) (services.DatasetInfo, error)
}
