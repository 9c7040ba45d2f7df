// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ankigen/internal/api"
	"github.com/starford/ankigen/internal/noteservice"
	"github.com/starford/ankigen/internal/sse"
	"github.com/starford/ankigen/internal/storage"
	"github.com/starford/ankigen/internal/textgen"
)

// NewService builds the note service from cfg. The text generator is
// attached only when the spending gate is open and a credential is set.
func NewService(ctx context.Context, cfg *Config, logger *slog.Logger) (*noteservice.Service, error) {
	opts := []noteservice.Option{
		noteservice.WithLogger(logger),
		noteservice.WithBridgeVersion(cfg.Bridge.Version),
	}
	if err := cfg.AI.Require(); err != nil {
		logger.Debug("text service disabled", slog.String("reason", err.Error()))
	} else {
		gen, err := textgen.NewGemini(ctx, cfg.AI.APIKey, cfg.AI.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("init text service: %w", err)
		}
		opts = append(opts, noteservice.WithGenerator(gen))
	}
	store := storage.NewBridge(cfg.Bridge.URL, cfg.Bridge.Version)
	return noteservice.NewService(store, opts...), nil
}

// NewHandler mounts health checks and the API under /api.
func NewHandler(svc *noteservice.Service, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.Ping(r.Context()); err != nil {
			slog.Warn("bridge not ready", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(svc, broker))
	return r
}

// Run starts the HTTP server with the given options and blocks until ctx is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("bridge_url", cfg.Bridge.URL),
		slog.Bool("ai_enabled", cfg.AI.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc := app.service
	if svc == nil {
		var err error
		if svc, err = NewService(ctx, cfg, logger); err != nil {
			return err
		}
	}

	if v, err := svc.Ping(ctx); err != nil {
		logger.Warn("bridge unavailable at startup", slog.String("error", err.Error()))
	} else {
		logger.Info("Bridge connected", slog.Int("version", v))
	}

	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           NewHandler(svc, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
