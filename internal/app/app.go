package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"strucplot/internal/chartgen"
	"strucplot/internal/config"
	"strucplot/internal/errors"
	"strucplot/internal/exporter"
	"strucplot/internal/files"
	"strucplot/internal/infrastructure"
	customMiddleware "strucplot/internal/middleware"
	"strucplot/internal/services"
	handlers "strucplot/internal/transport/http"
)

const (
	VERSION = "1.2.0"
	AppName = "strucplot"
)

// Application is the main dependency container.
type Application struct {
	Config  *config.Config
	Paths   *config.Paths
	Router  *chi.Mux
	Server  *http.Server
	Logger  *slog.Logger
	Metrics *infrastructure.MetricsProviders

	Manager      *files.Manager
	Uploads      *services.UploadService
	Charts       *services.ChartService
	Health       *services.HealthService
	ErrorHandler *errors.ErrorHandler
}

// NewApplication loads configuration and wires every service.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution()

	metrics, err := infrastructure.InitializeMetrics(context.Background(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	app := &Application{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		Metrics: metrics,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() {
	a.Manager = files.NewManager(a.Paths)
	a.Uploads = services.NewUploadService(a.Config, a.Manager, a.Logger)

	rc := chartgen.NewRenderContext()
	rc.PreviewDPI = a.Config.Render.PreviewDPI
	rc.ExportDPI = a.Config.Render.ExportDPI
	renderer := chartgen.NewRenderer(rc, a.Logger)
	packager := exporter.NewPackager(a.Logger)

	a.Charts = services.NewChartService(
		a.Config, a.Paths, a.Uploads, renderer, packager, a.Manager, a.Metrics, a.Logger)
	a.Health = services.NewHealthService(VERSION, a.Paths, a.Logger)
	a.ErrorHandler = errors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
	}))

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		// Uploads and quick lookups run with the standard request timeout.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
			r.Get("/health", healthHandler.HealthCheck)

			uploadHandler := handlers.NewUploadHandler(
				a.Uploads, a.Metrics, a.Config.Upload.MaxSizeBytes, a.Logger, a.ErrorHandler)
			r.Mount("/excel", uploadHandler.Routes())

			downloadHandler := handlers.NewDownloadHandler(a.Charts, a.Logger, a.ErrorHandler)
			r.Get("/download", downloadHandler.Download)
		})

		// Render endpoints get the longer render timeout; a 600 DPI
		// multi-format export can take a while.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Render.Timeout, a.Logger))

			chartHandler := handlers.NewChartHandler(a.Charts, a.Logger, a.ErrorHandler)
			r.Mount("/plot", chartHandler.Routes())
		})
	})

	// Prometheus scrape endpoint stays outside the middleware chain.
	if a.Metrics != nil && a.Metrics.PrometheusHTTP != nil {
		r.Handle("/metrics", a.Metrics.PrometheusHTTP)
	}

	a.Router = r
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start begins serving. Listen errors cancel the supplied context so
// Run can unwind instead of hanging.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	status := a.Health.Check(ctx)
	if status.Status != "healthy" {
		a.Logger.WarnContext(ctx, "Startup health check reported problems",
			slog.String("status", status.Status))
	}

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.Metrics != nil {
		if err := a.Metrics.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down metrics",
				slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
