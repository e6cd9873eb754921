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

	"github.com/starford/foamlinks/internal/api"
	"github.com/starford/foamlinks/internal/build"
	"github.com/starford/foamlinks/internal/index"
	"github.com/starford/foamlinks/internal/mcpserver"
	"github.com/starford/foamlinks/internal/noteservice"
	"github.com/starford/foamlinks/internal/storage"
)

// runtimeDeps are the components shared by every command.
type runtimeDeps struct {
	logger *slog.Logger
	db     *index.DB
	svc    *noteservice.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logWriter: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// setup initializes logging, storage, the index and the note service.
func (a *application) setup() (*runtimeDeps, error) {
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logWriter, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("output_path", cfg.Output.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	for _, dir := range []string{cfg.Vault.Path, cfg.Output.Path} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init vault storage: %w", err)
	}
	out, err := storage.NewFS(cfg.Output.Path)
	if err != nil {
		return nil, fmt.Errorf("init output storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	links := cfg.FoamLinks.Links()
	pipeline := build.New(store, out, db, logger, build.Options{
		Workers: cfg.Output.Workers,
		Links:   links,
	})

	return &runtimeDeps{
		logger: logger,
		db:     db,
		svc:    noteservice.NewService(store, db, pipeline, links, logger),
	}, nil
}

// Build runs one full build and returns its report.
func Build(ctx context.Context, opts ...Option) (*build.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	deps, err := app.setup()
	if err != nil {
		return nil, err
	}
	defer deps.db.Close()

	start := time.Now()
	rep, err := deps.svc.Build(ctx)
	if err != nil {
		return nil, err
	}
	deps.logger.Info("Build finished",
		slog.Int("documents", rep.Documents),
		slog.Int("written", rep.Written),
		slog.Int("unchanged", rep.Unchanged),
		slog.Int("references", rep.References),
		slog.Int("unresolved", rep.Unresolved),
		slog.Int("removed", len(rep.Removed)),
		slog.Duration("elapsed", time.Since(start)))
	return rep, nil
}

// ServeMCP builds once and then serves MCP tools over stdio.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	deps, err := app.setup()
	if err != nil {
		return err
	}
	defer deps.db.Close()

	if _, err := deps.svc.Build(ctx); err != nil {
		deps.logger.Warn("initial build failed", slog.String("error", err.Error()))
	}

	deps.logger.Info("MCP server starting on stdio")
	return mcpserver.New(deps.svc, app.version).ServeStdio()
}

// Run builds once and then serves the HTTP API until interrupted.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	deps, err := app.setup()
	if err != nil {
		return err
	}
	defer deps.db.Close()

	cfg := app.config
	logger := deps.logger

	// Run initial build.
	if _, err := deps.svc.Build(ctx); err != nil {
		logger.Warn("initial build failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(deps.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

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
