package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"viewership/internal/config"
	apierrors "viewership/internal/errors"
	"viewership/internal/infrastructure"
	customMiddleware "viewership/internal/middleware"
	"viewership/internal/services"
	transport "viewership/internal/transport/http"
	ws "viewership/internal/websocket"
	"viewership/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	WebSocketHub  *ws.Hub
	CorpusService *services.CorpusService
	HealthService *services.HealthService
	Metrics       *infrastructure.PipelineMetrics
	OTelProviders *infrastructure.OTelProviders
	ErrorHandler  *apierrors.ErrorHandler
	Logger        *slog.Logger
}

// NewApplication wires every component from cfg. The caller owns logger
// initialization so CLI commands and the server log the same way.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("version", contracts.Version),
		slog.String("legacy_period", cfg.Pipeline.LegacyPeriod))

	paths, err := cfg.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.NewPipelineMetrics(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Metrics:       metrics,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
		Logger:        logger,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	corpus, err := services.NewCorpusService(a.Config, a.Paths, hub, a.Metrics, a.Logger)
	if err != nil {
		hub.Stop()
		return fmt.Errorf("failed to initialize corpus service: %w", err)
	}
	a.CorpusService = corpus

	a.HealthService = services.NewHealthService(contracts.Version, contracts.BuildTime, a.Paths, corpus, hub, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// these do not wrap the ResponseWriter, so the websocket upgrade is unaffected
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Handle("/ws", ws.NewHandler(a.WebSocketHub, nil, a.Logger))

	metricsHandler := transport.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.HealthService, a.ErrorHandler, a.Logger)
	r.Mount("/metrics", metricsHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Tracing)
		r.Use(customMiddleware.StructuredLogger(a.Logger, a.Metrics))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.ErrorHandler,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := transport.NewHealthHandler(a.HealthService, a.Logger)
	dataHandler := transport.NewDataHandler(a.CorpusService, a.Config.Server.MaxUploadBytes, a.Logger, a.ErrorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.Mount("/data", dataHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts serving on a.Server.Addr and warms the corpus cache. Server
// errors are delivered on the returned channel.
func (a *Application) Start(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)

	a.Logger.InfoContext(ctx, "Starting server",
		slog.String("address", a.Server.Addr),
		slog.String("exports_dir", a.Paths.ExportsDir))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	go a.warmCorpus(ctx)

	return errCh
}

// warmCorpus builds the corpus once so the first page load hits the cache
func (a *Application) warmCorpus(ctx context.Context) {
	corpus, err := a.CorpusService.Corpus(ctx)
	if err != nil {
		a.Logger.WarnContext(ctx, "Startup corpus build failed", slog.String("error", err.Error()))
		return
	}
	for _, skipped := range corpus.Skipped {
		a.Logger.WarnContext(ctx, "Export skipped",
			slog.String("file", skipped.Name),
			slog.String("reason", skipped.Reason))
	}
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until ctx is cancelled or the server fails, then shuts down
func (a *Application) Run(ctx context.Context) error {
	errCh := a.Start(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Received shutdown signal")
	case serveErr = <-errCh:
		if serveErr != nil {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", serveErr.Error()))
		}
	}

	return errors.Join(serveErr, a.Stop(ctx))
}
