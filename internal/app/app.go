package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"google.golang.org/api/option"

	"ecorecovery/internal/cache"
	"ecorecovery/internal/charts"
	"ecorecovery/internal/config"
	"ecorecovery/internal/dataset"
	apierrors "ecorecovery/internal/errors"
	"ecorecovery/internal/infrastructure"
	"ecorecovery/internal/loader"
	customMiddleware "ecorecovery/internal/middleware"
	"ecorecovery/internal/services"
	handlers "ecorecovery/internal/transport/http"
	ws "ecorecovery/internal/websocket"
	"ecorecovery/pkg/contracts"
)

var (
	// BuildTime is the ldflags build time, or the process start time
	BuildTime = buildTime()
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func buildTime() string {
	if contracts.BuildTime != "unknown" {
		return contracts.BuildTime
	}
	return time.Now().Format(time.RFC3339)
}

func generateBuildID() string {
	if contracts.GitCommit != "unknown" && len(contracts.GitCommit) >= 12 {
		return contracts.GitCommit[:12]
	}
	h := sha256.New()
	h.Write([]byte(config.AppVersion))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	BusinessMetrics  *infrastructure.BusinessMetrics
	ErrorHandler     *apierrors.ErrorHandler
	Loader           *loader.Loader
	WebSocketHub     *ws.Hub
	DashboardService *services.DashboardService
	HealthService    *services.HealthService

	loaderOptions []loader.Option
}

// Option customizes an Application before its services are built
type Option func(*Application)

// WithLoaderOptions appends options to the dataset loader, after the ones
// derived from the configuration.
func WithLoaderOptions(opts ...loader.Option) Option {
	return func(a *Application) { a.loaderOptions = append(a.loaderOptions, opts...) }
}

// NewApplication loads the configuration and logger and builds the
// application.
func NewApplication(opts ...Option) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger, opts...)
}

// New builds the application from an already loaded configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_id", BuildID))

	otelProviders, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    infrastructure.ServiceName,
		ServiceVersion: config.AppVersion,
		Environment:    cfg.Telemetry.Environment,
		TraceExporter:  cfg.Telemetry.TraceExporter,
		MetricExporter: cfg.Telemetry.MetricExporter,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.initializeServices(); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		app.WebSocketHub.Stop()
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	meter := a.OTelProviders.Meter

	businessMetrics, err := infrastructure.CreateBusinessMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.BusinessMetrics = businessMetrics

	dataLoader, err := a.newLoader()
	if err != nil {
		return err
	}
	a.Loader = dataLoader

	wsMetrics, err := ws.NewMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	hub := ws.NewHub(a.Logger, wsMetrics, ws.Options{
		PongWait:   a.Config.WebSocket.PongWait,
		PingPeriod: a.Config.WebSocket.PingPeriod,
	})
	hub.Start()
	a.WebSocketHub = hub

	// Open dashboards reload whenever a fresh dataset arrives
	dataLoader.OnRefresh(hub.NotifyDatasetRefreshed)

	a.DashboardService = services.NewDashboardService(dataLoader, a.Config.Data.URL, a.Logger,
		services.WithDefaultTopN(a.Config.Dashboard.DefaultTopN),
		services.WithChartSize(charts.Size{
			Width:  a.Config.Dashboard.ChartWidth,
			Height: a.Config.Dashboard.ChartHeight,
		}),
		services.WithExportBaseName(config.ExportBaseName),
		services.WithBusinessMetrics(businessMetrics),
	)

	a.HealthService = services.NewHealthServiceWithBuildInfo(
		config.AppVersion,
		BuildTime,
		BuildID,
		a.DashboardService,
		hub,
		a.Logger,
	)

	return nil
}

// newLoader builds the dataset loader with one source per supported scheme
func (a *Application) newLoader() (*loader.Loader, error) {
	dataCfg := a.Config.Data

	loaderMetrics, err := loader.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader metrics: %w", err)
	}

	httpSource := loader.NewHTTPSource(dataCfg.HTTPTimeout)
	httpSource.MaxBytes = dataCfg.MaxBytes

	opts := []loader.Option{
		loader.WithTTL(dataCfg.CacheTTL),
		loader.WithCache(cache.NewMemoryCache[*dataset.Dataset](dataCfg.CacheSize, cache.SystemClock{})),
		loader.WithLogger(a.Logger),
		loader.WithMetrics(loaderMetrics),
		loader.WithSource("http", httpSource),
		loader.WithSource("https", httpSource),
		loader.WithSource("file", loader.FileSource{MaxBytes: dataCfg.MaxBytes}),
	}

	if a.Config.Sheets.Enabled() {
		var clientOpts []option.ClientOption
		if a.Config.Sheets.CredentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(a.Config.Sheets.CredentialsFile))
		} else {
			clientOpts = append(clientOpts, option.WithAPIKey(a.Config.Sheets.APIKey))
		}
		sheetsSource, err := loader.NewSheetsSource(context.Background(), clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sheets source: %w", err)
		}
		opts = append(opts, loader.WithSource("sheets", sheetsSource))
	}

	return loader.New(append(opts, a.loaderOptions...)...), nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// Only middleware that leaves the ResponseWriter alone runs in front of
	// the websocket upgrade
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	wsHandler := ws.NewHandler(a.WebSocketHub, ws.HandlerConfig{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
	}, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle("/ws", wsHandler)

	compress, err := customMiddleware.Compress(5)
	if err != nil {
		return err
	}

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.BusinessMetrics)
	if err != nil {
		return err
	}

	validator := customMiddleware.NewQueryValidator(a.Logger, a.ErrorHandler)

	pageHandler, err := handlers.NewPageHandler(a.DashboardService, validator, handlers.PageConfig{
		Title:          a.Config.Dashboard.Title,
		Subtitle:       a.Config.Dashboard.Subtitle,
		Caption:        a.Config.Dashboard.Caption,
		PlaceholderURL: a.Config.DataURLIsPlaceholder(),
	}, a.Logger, a.ErrorHandler)
	if err != nil {
		return fmt.Errorf("failed to parse page template: %w", err)
	}

	// Everything else gets the full chain:
	// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
	r.Group(func(r chi.Router) {
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.BusinessMetricsMiddleware(a.BusinessMetrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				ExposedHeaders: []string{"Content-Disposition", customMiddleware.RequestIDHeader},
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.ErrorHandler,
			).Handler)
		}

		r.Use(compress)
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		a.setupAPIRoutes(r, validator)
		r.Method(http.MethodGet, "/", pageHandler)
	})

	// Prometheus scrape endpoint, outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, validator *customMiddleware.QueryValidator) {
	r.Route("/api", func(r chi.Router) {
		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Post("/client-log", handlers.NewClientLogHandler(validator, a.Logger, a.ErrorHandler).Handle)

		handlers.NewDashboardHandler(a.DashboardService, validator, a.Logger, a.ErrorHandler).RegisterRoutes(r)
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving. A listen failure cancels the application context
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	if a.Config.DataURLIsPlaceholder() {
		a.Logger.WarnContext(ctx, "DATA_URL is not configured, the dashboard will show a load error",
			slog.String("env", config.EnvPrefix+"_DATA_URL"))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	// Hijacked websocket connections are not tracked by Shutdown
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received interrupt signal")

	// The signal context is done; shutdown gets a fresh one
	return a.Stop(context.Background())
}
