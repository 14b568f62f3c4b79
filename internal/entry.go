// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/asterism/internal/api"
	"github.com/starford/asterism/internal/catalog"
	"github.com/starford/asterism/internal/converter"
	"github.com/starford/asterism/internal/emitter"
	"github.com/starford/asterism/internal/mcpserver"
	"github.com/starford/asterism/internal/sse"
	"github.com/starford/asterism/internal/storage"
	"github.com/starford/asterism/internal/watch"
)

// components are shared by every command.
type components struct {
	cfg     *Config
	logger  *slog.Logger
	store   *storage.FS
	catalog *catalog.DB
	svc     *converter.Service
}

func (rt *components) Close() {
	if rt.catalog != nil {
		if err := rt.catalog.Close(); err != nil {
			rt.logger.Warn("catalog: close failed", slog.String("error", err.Error()))
		}
	}
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.App.LogLevel}
	if cfg.App.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func setup(opts []Option) (*components, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(cfg, app.logOutput)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("source_dir", cfg.Source.Dir),
		slog.String("input", cfg.Source.Input),
		slog.String("output", cfg.Output.Path),
		slog.String("format", cfg.Output.Format),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Source.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create source dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Source.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	logger.Debug("storage: ready", slog.String("root", store.Root()))

	rt := &components{cfg: cfg, logger: logger, store: store}

	// A nil *catalog.DB must not end up inside the catalog.Store interface.
	var cat catalog.Store
	if cfg.Catalog.Enabled() {
		db, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("init catalog: %w", err)
		}
		rt.catalog = db
		cat = db
	}

	rt.svc = converter.NewService(store, cat, converter.Config{
		Input:  cfg.Source.Input,
		Output: cfg.Output.Path,
		Options: converter.Options{
			SourceBlock: cfg.Source.Block,
			Emit: emitter.Options{
				Block:  cfg.Output.Block,
				Format: cfg.Output.Format,
			},
		},
		Force: app.force,
	}, logger)

	return rt, nil
}

// Convert performs a single conversion pass.
func Convert(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.svc.Run(ctx); err != nil {
		return fmt.Errorf("convert %s: %w", rt.cfg.Source.Input, err)
	}
	return nil
}

// Watch performs an initial pass and then reconverts whenever the source
// file changes, until a shutdown signal arrives or ctx is cancelled.
func Watch(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.initialPass(ctx)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rt.watch(ctx, nil)
}

// Run starts the watcher, the HTTP API and the event stream.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg := rt.cfg
	logger := rt.logger

	rt.initialPass(ctx)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", rt.ready)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		return rt.watch(gCtx, func(rep *converter.Report, err error) {
			broker.PublishConversion(sse.FromReport(rep, err))
		})
	})

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

		// Stops the watcher when shutdown came from a signal.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown ends the errgroup after a clean shutdown.
var errShutdown = errors.New("shutdown")

// ServeMCP exposes the MCP tools over stdio. Logs go to stderr unless
// redirected, since stdout carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	rt, err := setup(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("mcp: serving on stdio")
	return mcpserver.New(rt.svc).ServeStdio()
}

// initialPass converts once at startup. Failures are logged; the watcher
// picks up the next change.
func (rt *components) initialPass(ctx context.Context) {
	if _, err := rt.svc.Run(ctx); err != nil {
		rt.logger.Warn("initial conversion failed", slog.String("error", err.Error()))
	}
}

func (rt *components) watch(ctx context.Context, cb watch.Callback) error {
	input, err := rt.store.Abs(rt.cfg.Source.Input)
	if err != nil {
		return fmt.Errorf("resolve input: %w", err)
	}
	return watch.Watch(ctx, rt.svc, watch.Options{
		Input:    input,
		Debounce: rt.cfg.Watch.Debounce,
	}, rt.logger, cb)
}

// ready reports whether the catalog, when enabled, answers queries.
func (rt *components) ready(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if rt.catalog != nil {
		if _, err := rt.catalog.List(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
