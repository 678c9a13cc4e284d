package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/intake"
)

// RunScan performs a one-shot scan of a single source note and exits: no
// watcher, no HTTP. An empty doc means today's daily note, derived from the
// source folder and date pattern.
func RunScan(ctx context.Context, doc string, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if doc == "" {
		if cfg.Source.DatePattern == "" {
			return fmt.Errorf("scan: no doc given and source.date_pattern is empty")
		}
		doc = path.Join(cfg.Source.Folder, time.Now().Format(cfg.Source.DatePattern)+".md")
	}

	core, err := buildCore(cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	coord := intake.NewCoordinator(core.store, core.state, core.pipeline, 0, logger, nil)
	defer coord.Close()

	logger.Info("Scanning note", slog.String("doc", doc))
	if err := coord.Scan(ctx, doc); err != nil {
		return fmt.Errorf("scan %s: %w", doc, err)
	}

	// Index the clips this scan produced so MCP search stays fresh without
	// the daemon running.
	if err := index.Sync(core.db, core.store, cfg.Clips.Folder, logger); err != nil {
		logger.Warn("index sync failed", slog.String("error", err.Error()))
	}

	return nil
}
