// Package app assembles the flow service: configuration, logging,
// middleware chain, routes and the HTTP server lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fluxnet/internal/config"
	"fluxnet/internal/exchange"
	"fluxnet/internal/metrics"
	"fluxnet/internal/middleware"
	"fluxnet/internal/services"
	transporthttp "fluxnet/internal/transport/http"
)

// Version is stamped at build time.
var Version = "dev"

// Application wires the service together and runs the HTTP server.
type Application struct {
	Config *config.Config
	Logger *slog.Logger

	server *http.Server
}

// NewApplication creates a fully wired application from configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	recorder := metrics.New(nil)
	loader := exchange.NewLoader(nil, logger)
	flowService := services.NewFlowService(loader, cfg.Data.SourceFile, logger, recorder)

	app := &Application{Config: cfg, Logger: logger}
	router := app.buildRouter(flowService, recorder)

	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

func (a *Application) buildRouter(flowService transporthttp.FlowService, recorder *metrics.Recorder) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(a.Logger))
	r.Use(middleware.Recoverer(a.Logger))
	r.Use(middleware.Metrics(recorder))

	if a.Config.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(a.Config.RateLimit.RPS, a.Config.RateLimit.Burst, a.Logger)
		r.Use(limiter.Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Mount("/flows", transporthttp.NewFlowHandler(flowService, a.Logger).Routes())
	})

	r.Get("/healthz", transporthttp.NewHealthHandler(Version).Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts the server down gracefully.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.Logger.Info("server listening",
			slog.String("addr", a.server.Addr),
			slog.String("source_file", a.Config.Data.SourceFile),
			slog.String("version", Version),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.Logger.Info("shutting down")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newLogger builds the process logger from logging configuration.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
