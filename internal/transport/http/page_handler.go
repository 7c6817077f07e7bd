package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"ecorecovery/internal/analytics"
	"ecorecovery/internal/dashboard"
	apierrors "ecorecovery/internal/errors"
	"ecorecovery/internal/exporter"
	appmiddleware "ecorecovery/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoadErrorPrefix starts the banner shown when the dataset cannot be loaded
const LoadErrorPrefix = "Gagal memuat data. Periksa DATA_URL atau jaringan. Error: "

// PageConfig holds the static texts of the dashboard page
type PageConfig struct {
	Title    string
	Subtitle string
	Caption  string
	// PlaceholderURL shows a warning that DATA_URL still points at the
	// placeholder location.
	PlaceholderURL bool
}

// PageHandler renders the dashboard page
type PageHandler struct {
	service      DashboardServiceInterface
	validator    *appmiddleware.QueryValidator
	config       PageConfig
	tmpl         *template.Template
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler parses the embedded page template
func NewPageHandler(service DashboardServiceInterface, validator *appmiddleware.QueryValidator, cfg PageConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*PageHandler, error) {
	tmpl, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"link": link,
	}).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}

	return &PageHandler{
		service:      service,
		validator:    validator,
		config:       cfg,
		tmpl:         tmpl,
		logger:       logger.With(slog.String("handler", "page")),
		errorHandler: errorHandler,
	}, nil
}

type pageData struct {
	PageConfig
	Error   string
	View    dashboard.View
	TopN    int
	MinTopN int
	MaxTopN int
	Query   url.Values
	Exports []exporter.Format
}

// ServeHTTP handles GET /
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	top, ok := h.validator.ValidateInt(w, r, "top", analytics.MinTopN, analytics.MaxTopN, h.service.DefaultTopN())
	if !ok {
		return
	}

	data := pageData{
		PageConfig: h.config,
		TopN:       top,
		MinTopN:    analytics.MinTopN,
		MaxTopN:    analytics.MaxTopN,
		Exports:    exporter.Formats(),
	}

	status := http.StatusOK
	view, err := h.service.View(r.Context(), serviceQuery(r.URL.Query(), top))
	if err != nil {
		// No partial dashboard: the page shows the banner only
		data.Error = LoadErrorPrefix + loadErrorDetail(err)
		status = http.StatusBadGateway
		h.logger.WarnContext(r.Context(), "dashboard page without data",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
	} else {
		data.View = view
		data.TopN = view.Table.TopN
		data.Query = withTop(view.Query, view.Table.TopN)
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewRenderError("failed to render dashboard page", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// loadErrorDetail prefers the AppError detail over the tagged message.
func loadErrorDetail(err error) string {
	var appErr *apierrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Detail()
	}
	return err.Error()
}

func withTop(q url.Values, top int) url.Values {
	out := make(url.Values, len(q)+1)
	for k, v := range q {
		out[k] = v
	}
	out.Set("top", strconv.Itoa(top))
	return out
}

// link joins a path and an encoded query.
func link(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
