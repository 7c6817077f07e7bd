package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"ecorecovery/internal/analytics"
	"ecorecovery/internal/cache"
	"ecorecovery/internal/charts"
	"ecorecovery/internal/dashboard"
	"ecorecovery/internal/dataset"
	apierrors "ecorecovery/internal/errors"
	"ecorecovery/internal/exporter"
	"ecorecovery/internal/infrastructure"
	"ecorecovery/pkg/contracts/domain"
)

// DatasetLoader is the part of the loader the dashboard depends on.
type DatasetLoader interface {
	Load(ctx context.Context, ref string) (*dataset.Dataset, error)
	Reload(ctx context.Context, ref string) (*dataset.Dataset, error)
}

// Query is the user-controlled state of one dashboard request.
type Query struct {
	Filters url.Values
	TopN    int
}

// DatasetInfo describes the currently loaded dataset.
type DatasetInfo struct {
	Source   string       `json:"source"`
	Records  int          `json:"records"`
	LoadedAt time.Time    `json:"loaded_at"`
	Cache    *cache.Stats `json:"cache,omitempty"`
}

// cacheReporter is implemented by loaders that expose cache counters.
type cacheReporter interface {
	CacheStats() (cache.Stats, bool)
}

// Download is a rendered file ready to be served.
type Download struct {
	FileName    string
	ContentType string
	Body        []byte
	Records     int
}

// Image is a rendered chart.
type Image struct {
	ContentType string
	Body        []byte
}

// DashboardService runs the load -> filter -> aggregate -> present pipeline
// for every request. It holds no per-request state.
type DashboardService struct {
	loader      DatasetLoader
	dataURL     string
	defaultTopN int
	chartSize   charts.Size
	exportBase  string
	metrics     *infrastructure.BusinessMetrics
	logger      *slog.Logger
}

// DashboardOption configures a DashboardService.
type DashboardOption func(*DashboardService)

// WithDefaultTopN sets the table size used when a request does not set one.
func WithDefaultTopN(n int) DashboardOption {
	return func(s *DashboardService) { s.defaultTopN = analytics.ClampTopN(n) }
}

// WithChartSize sets the rendered chart size.
func WithChartSize(size charts.Size) DashboardOption {
	return func(s *DashboardService) { s.chartSize = size }
}

// WithExportBaseName sets the download file name without extension.
func WithExportBaseName(name string) DashboardOption {
	return func(s *DashboardService) { s.exportBase = name }
}

// WithBusinessMetrics records renders and exports into m.
func WithBusinessMetrics(m *infrastructure.BusinessMetrics) DashboardOption {
	return func(s *DashboardService) { s.metrics = m }
}

// NewDashboardService creates the dashboard pipeline over dataURL.
func NewDashboardService(l DatasetLoader, dataURL string, logger *slog.Logger, opts ...DashboardOption) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DashboardService{
		loader:      l,
		dataURL:     dataURL,
		defaultTopN: analytics.DefaultTopN,
		chartSize:   charts.DefaultSize,
		exportBase:  "sibolga_filtered_results",
		logger:      logger.With("component", "dashboard_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultTopN returns the table size used when a request does not set one.
func (s *DashboardService) DefaultTopN() int {
	return s.defaultTopN
}

// Dataset loads the current dataset. Load failures are returned as
// *apierrors.AppError of type NETWORK or PARSING.
func (s *DashboardService) Dataset(ctx context.Context) (*dataset.Dataset, error) {
	ds, err := s.loader.Load(ctx, s.dataURL)
	if err != nil {
		return nil, translateLoadError(err)
	}
	return ds, nil
}

func (s *DashboardService) state(ds *dataset.Dataset, q Query) dashboard.State {
	top := q.TopN
	if top == 0 {
		top = s.defaultTopN
	}
	return dashboard.StateFromQuery(q.Filters, ds, top)
}

// View renders the complete dashboard for q.
func (s *DashboardService) View(ctx context.Context, q Query) (dashboard.View, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return dashboard.View{}, err
	}
	view := dashboard.Render(ds, s.state(ds, q))
	s.metrics.RecordDashboardRender(ctx, len(view.Rows))

	s.logger.DebugContext(ctx, "dashboard rendered",
		slog.Int("records", ds.Len()),
		slog.Int("filtered", len(view.Rows)),
		slog.Int("top_n", view.Table.TopN))
	return view, nil
}

// Filters returns the filter controls with every value selected.
func (s *DashboardService) Filters(ctx context.Context) ([]dashboard.Filter, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return dashboard.Filters(ds, ds.DefaultSelection()), nil
}

// Records returns the filtered records in dataset order. A positive limit
// truncates the result.
func (s *DashboardService) Records(ctx context.Context, q Query, limit int) ([]domain.Record, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	rows := ds.Filter(s.state(ds, q).Selection)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Summary returns the four scalar metrics of the filtered set.
func (s *DashboardService) Summary(ctx context.Context, q Query) (analytics.Summary, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return analytics.Summary{}, err
	}
	return analytics.Summarize(ds.Filter(s.state(ds, q).Selection)), nil
}

// Chart renders one of the dashboard charts for the filtered set.
func (s *DashboardService) Chart(ctx context.Context, kind charts.Kind, format charts.Format, q Query) (Image, error) {
	view, err := s.View(ctx, q)
	if err != nil {
		return Image{}, err
	}

	start := time.Now()
	var buf bytes.Buffer
	switch kind {
	case charts.KindPriority:
		err = charts.RenderStacked(&buf, view.PriorityChart, format, s.chartSize)
	case charts.KindSensitivity:
		err = charts.RenderBars(&buf, view.SensitivityChart, format, s.chartSize)
	default:
		return Image{}, apierrors.NewNotFoundError(fmt.Sprintf("chart %q", kind), ErrUnknownChart)
	}
	s.metrics.RecordChartRender(ctx, string(kind), string(format), time.Since(start), err)
	if err != nil {
		logServiceError(ctx, s.logger, "chart", "chart render failed",
			slog.String("kind", string(kind)),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return Image{}, apierrors.NewRenderError(fmt.Sprintf("failed to render %s chart", kind), err)
	}
	return Image{ContentType: format.ContentType(), Body: buf.Bytes()}, nil
}

// Export serializes the filtered set. The whole file is rendered before
// anything is sent so a failure never produces a truncated download.
func (s *DashboardService) Export(ctx context.Context, format exporter.Format, q Query) (Download, error) {
	parsed, err := exporter.ParseFormat(string(format))
	if err != nil {
		return Download{}, apierrors.NewAppValidationError(fmt.Sprintf("export format %q is not supported", format), ErrUnsupportedFormat)
	}
	format = parsed

	ds, err := s.Dataset(ctx)
	if err != nil {
		return Download{}, err
	}
	rows := ds.Filter(s.state(ds, q).Selection)

	var buf bytes.Buffer
	if err := exporter.Write(&buf, format, rows); err != nil {
		logServiceError(ctx, s.logger, "export", "export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return Download{}, apierrors.NewRenderError(fmt.Sprintf("failed to export %s", format), err)
	}
	s.metrics.RecordExport(ctx, string(format), int64(buf.Len()))

	s.logger.InfoContext(ctx, "export generated",
		slog.String("format", string(format)),
		slog.Int("records", len(rows)),
		slog.Int("bytes", buf.Len()))

	return Download{
		FileName:    format.FileName(s.exportBase),
		ContentType: format.ContentType(),
		Body:        buf.Bytes(),
		Records:     len(rows),
	}, nil
}

// Refresh drops the cached dataset and fetches it again.
func (s *DashboardService) Refresh(ctx context.Context) (DatasetInfo, error) {
	ds, err := s.loader.Reload(ctx, s.dataURL)
	if err != nil {
		return DatasetInfo{}, translateLoadError(err)
	}
	s.logger.InfoContext(ctx, "dataset refreshed", slog.Int("records", ds.Len()))
	return s.infoOf(ds), nil
}

// Info describes the dataset, loading it when needed.
func (s *DashboardService) Info(ctx context.Context) (DatasetInfo, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return DatasetInfo{}, err
	}
	return s.infoOf(ds), nil
}

func (s *DashboardService) infoOf(ds *dataset.Dataset) DatasetInfo {
	info := DatasetInfo{
		Source:   displaySource(ds.Source()),
		Records:  ds.Len(),
		LoadedAt: ds.LoadedAt(),
	}
	if r, ok := s.loader.(cacheReporter); ok {
		if stats, ok := r.CacheStats(); ok {
			info.Cache = &stats
		}
	}
	return info
}

// displaySource hides credentials and query parameters of the data URL.
func displaySource(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		return ref
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
