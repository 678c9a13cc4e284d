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

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/classify"
	"github.com/starford/ansuz/internal/clipnote"
	"github.com/starford/ansuz/internal/clipservice"
	"github.com/starford/ansuz/internal/fetch"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/intake"
	"github.com/starford/ansuz/internal/ledger"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
)

// core bundles the stack shared by the daemon, one-shot scan, and MCP modes:
// vault storage, SQLite index, intake state, ledgers, and the clip pipeline.
type core struct {
	store    storage.Provider
	db       *index.DB
	state    *intake.StateStore
	ledgers  *ledger.Book
	pipeline *intake.Pipeline
}

func buildCore(cfg *Config, logger *slog.Logger) (*core, error) {
	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	state, err := intake.OpenState(cfg.Intake.StatePath, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init intake state: %w", err)
	}

	book := ledger.NewBook(store, cfg.Ledgers.Product, cfg.Ledgers.Article, logger)

	pipe := intake.NewPipeline(
		fetch.New(cfg.Fetch.Timeout, cfg.Fetch.MaxBodyBytes, logger),
		classify.New(classify.Options{
			Endpoint:  cfg.Classifier.Endpoint,
			Model:     cfg.Classifier.Model,
			APIKey:    cfg.Classifier.APIKey,
			KeyFile:   cfg.Classifier.APIKeyFile,
			VaultRoot: cfg.Vault.Path,
			Fallback:  models.Category(cfg.Classifier.Fallback),
		}, logger),
		clipnote.NewWriter(store, cfg.Clips.Folder, logger),
		book,
		cfg.Clips.MaxExcerptChars,
		logger,
	)

	return &core{store: store, db: db, state: state, ledgers: book, pipeline: pipe}, nil
}

func (c *core) Close() {
	_ = c.db.Close()
}

// Run starts the daemon: vault watcher, intake coordinator, SQLite index,
// and the HTTP API with SSE.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("source_folder", cfg.Source.Folder),
		slog.String("clips_folder", cfg.Clips.Folder),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	core, err := buildCore(cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	// Run initial sync so search covers clips written while the daemon was down.
	if err := index.Sync(core.db, core.store, cfg.Clips.Folder, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Intake coordinator publishes clip lifecycle events to SSE clients.
	coord := intake.NewCoordinator(core.store, core.state, core.pipeline,
		cfg.Intake.Debounce, logger, broker.PublishClipEvent)
	defer coord.Close()

	// Build API service and router.
	svc := clipservice.NewService(core.store, core.db, coord, core.ledgers)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	// Mount API routes (including SSE at /api/events) under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// cancel stops the watcher once a shutdown signal arrives; without it
	// g.Wait would never return.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start the vault watcher: daily notes feed the coordinator, clip notes
	// feed the index, index changes feed SSE.
	g.Go(func() error {
		routes := index.Routes{
			ClipsFolder:  cfg.Clips.Folder,
			SourceFolder: cfg.Source.Folder,
			DatePattern:  cfg.Source.DatePattern,
			Notify:       coord.NotifyChange,
		}
		return index.Watch(gCtx, core.db, core.store, cfg.Vault.Path, routes, logger, broker.PublishIndexEvent)
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

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
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
