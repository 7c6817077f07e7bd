package http

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"ecorecovery/internal/analytics"
	"ecorecovery/internal/charts"
	apierrors "ecorecovery/internal/errors"
	"ecorecovery/internal/exporter"
	appmiddleware "ecorecovery/internal/middleware"
	"ecorecovery/internal/services"
)

// maxRecordLimit bounds the ?limit parameter of the records endpoint
const maxRecordLimit = 10000

// DashboardHandler serves the dashboard JSON API, chart images and downloads
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *appmiddleware.QueryValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, validator *appmiddleware.QueryValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard API routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes adds the dashboard API routes to r
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/filters", h.GetFilters)
		r.Get("/records", h.GetRecords)
		r.Get("/summary", h.GetSummary)
		r.Get("/dataset", h.GetDataset)
		r.Post("/refresh", h.Refresh)
	})

	// Binary responses
	r.Get("/charts/{kind}.{format}", h.GetChart)
	r.Get("/export.{format}", h.Export)
}

// parseQuery reads the filter selection and the table size. On failure the
// problem response has been written and ok is false.
func (h *DashboardHandler) parseQuery(w http.ResponseWriter, r *http.Request) (services.Query, bool) {
	top, ok := h.validator.ValidateInt(w, r, "top", analytics.MinTopN, analytics.MaxTopN, 0)
	if !ok {
		return services.Query{}, false
	}
	return serviceQuery(r.URL.Query(), top), true
}

func serviceQuery(q url.Values, top int) services.Query {
	return services.Query{Filters: q, TopN: top}
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	view, err := h.service.View(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
		"count":  len(view.Rows),
	})
}

// GetFilters handles GET /api/filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.service.Filters(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   filters,
		"count":  len(filters),
	})
}

// GetRecords handles GET /api/records
func (h *DashboardHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	limit, ok := h.validator.ValidateInt(w, r, "limit", 1, maxRecordLimit, 0)
	if !ok {
		return
	}

	records, err := h.service.Records(r.Context(), q, limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}

// GetSummary handles GET /api/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// Refresh handles POST /api/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Refresh(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset refresh requested",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("records", info.Records),
	)

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// GetChart handles GET /api/charts/{kind}.{format}
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	kind, err := charts.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrChartNotFound.WithDetails(chi.URLParam(r, "kind")))
		return
	}
	format, err := charts.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrChartNotFound.WithDetails(chi.URLParam(r, "format")))
		return
	}
	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	img, err := h.service.Chart(r.Context(), kind, format, q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Body); err != nil {
		h.logger.WarnContext(r.Context(), "chart write interrupted",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
	}
}

// Export handles GET /api/export.{format}
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError(fmt.Sprintf("export format %q", chi.URLParam(r, "format"))))
		return
	}
	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	download, err := h.service.Export(r.Context(), format, q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": download.FileName}))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(download.Body); err != nil {
		h.logger.WarnContext(r.Context(), "download interrupted",
			slog.String("file", download.FileName),
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "download served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("file", download.FileName),
		slog.Int("records", download.Records),
	)
}
