// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
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

	"github.com/starford/docuflow/internal/api"
	"github.com/starford/docuflow/internal/apperr"
	"github.com/starford/docuflow/internal/catalog"
	"github.com/starford/docuflow/internal/mcpserver"
	"github.com/starford/docuflow/internal/metrics"
	"github.com/starford/docuflow/internal/organizer"
	"github.com/starford/docuflow/internal/render"
	"github.com/starford/docuflow/internal/sse"
	"github.com/starford/docuflow/internal/storage"
	"github.com/starford/docuflow/internal/tui"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// initLogger installs the structured JSON logger as the default.
func (a *application) initLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openStorage opens the configured key-value backend.
func (a *application) openStorage(logger *slog.Logger) (storage.Provider, func() error, error) {
	cfg := a.config
	logger.Info("Opening storage",
		slog.String("driver", cfg.Storage.Driver),
		slog.String("path", cfg.Storage.Path),
		slog.String("sqlite_path", cfg.SQLite.Path))

	kv, closeFn, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path, cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	return kv, closeFn, nil
}

// openCatalog loads the catalog. Malformed stored data is fatal.
func openCatalog(kv storage.Provider, opts ...catalog.Option) (*catalog.Store, error) {
	store, err := catalog.Open(kv, opts...)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return store, nil
}

// watchCatalog reloads store when the fs backend's files are edited by
// someone else. It is a no-op for the other backends.
func watchCatalog(ctx context.Context, kv storage.Provider, store *catalog.Store, logger *slog.Logger) error {
	fs, ok := kv.(*storage.FS)
	if !ok {
		return nil
	}
	return fs.Watch(ctx, logger, func(key string) {
		if key != catalog.DocumentsKey && key != catalog.CategoriesKey {
			return
		}
		if err := store.Reload(); err != nil {
			logger.Error("catalog reload failed", slog.String("key", key), slog.String("error", err.Error()))
			return
		}
		logger.Info("catalog reloaded", slog.String("key", key))
	})
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.initLogger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize storage.
	kv, closeKV, err := app.openStorage(logger)
	if err != nil {
		return err
	}
	defer closeKV()

	// SSE broker.
	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	store, err := openCatalog(kv, catalog.WithObserver(func(c catalog.Change) {
		broker.PublishChange(string(c.Kind), c.ID)
	}))
	if err != nil {
		return err
	}
	sess := organizer.NewSession(store, organizer.WithLogger(logger))

	renderer, err := render.NewRenderer()
	if err != nil {
		return err
	}
	mtr, err := metrics.New(store, broker)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(mtr.Middleware)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := kv.Keys(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"storage unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", mtr.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(render.Static())))

	// Mount API routes under /api, SSE included.
	r.Mount("/api", api.NewRouter(sess, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	// Organizer pages. The browser EventSource cannot send a bearer token,
	// so live reload is only offered when auth is disabled.
	api.NewPages(sess, renderer, !cfg.Auth.AuthEnabled()).Mount(r)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the catalog when its files change on disk.
	g.Go(func() error {
		return watchCatalog(gCtx, kv, store, logger)
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

		// Stop the watcher as well when a signal ended the run.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunTUI starts the terminal front end.
func RunTUI(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.initLogger()

	kv, closeKV, err := app.openStorage(logger)
	if err != nil {
		return err
	}
	defer closeKV()

	changes := make(chan catalog.Change, 16)
	store, err := openCatalog(kv, catalog.WithObserver(func(c catalog.Change) {
		select {
		case changes <- c:
		default:
		}
	}))
	if err != nil {
		return err
	}
	sess := organizer.NewSession(store, organizer.WithLogger(logger))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watchCatalog(gCtx, kv, store, logger)
	})
	g.Go(func() error {
		defer cancel()
		return tui.Run(gCtx, sess, tui.WithChanges(changes))
	})
	return g.Wait()
}

// RunMCP serves the MCP tools over stdin/stdout until the client hangs up.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.initLogger()

	kv, closeKV, err := app.openStorage(logger)
	if err != nil {
		return err
	}
	defer closeKV()

	store, err := openCatalog(kv)
	if err != nil {
		return err
	}
	sess := organizer.NewSession(store, organizer.WithLogger(logger))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watchCatalog(gCtx, kv, store, logger)
	})
	g.Go(func() error {
		defer cancel()
		logger.Info("MCP server listening on stdio")
		return mcpserver.New(sess, app.version).ServeStdio()
	})
	return g.Wait()
}

// Export writes both stored catalog entries to w as one JSON object.
// Missing entries are written as null.
func Export(_ context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.initLogger()

	kv, closeKV, err := app.openStorage(logger)
	if err != nil {
		return err
	}
	defer closeKV()

	out := make(map[string]json.RawMessage, 2)
	for _, key := range []string{catalog.DocumentsKey, catalog.CategoriesKey} {
		data, err := kv.Get(key)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			out[key] = json.RawMessage("null")
		case err != nil:
			return fmt.Errorf("export %s: %w", key, err)
		default:
			out[key] = data
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Reset deletes both stored catalog entries, so the next start shows the
// default categories and no documents.
func Reset(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.initLogger()

	kv, closeKV, err := app.openStorage(logger)
	if err != nil {
		return err
	}
	defer closeKV()

	for _, key := range []string{catalog.DocumentsKey, catalog.CategoriesKey} {
		if err := kv.Delete(key); err != nil {
			return fmt.Errorf("reset %s: %w", key, err)
		}
		logger.Info("catalog entry deleted", slog.String("key", key))
	}
	return nil
}
