package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/ansuz/internal/clipservice"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/intake"
	"github.com/starford/ansuz/internal/mcpserver"
)

// RunMCP serves the MCP tools on stdio. HTTP, SSE, and the watcher stay
// off; the tools drive the same coordinator and index as the daemon.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// The MCP protocol owns stdout, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	core, err := buildCore(cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	if err := index.Sync(core.db, core.store, cfg.Clips.Folder, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	coord := intake.NewCoordinator(core.store, core.state, core.pipeline,
		cfg.Intake.Debounce, logger, nil)
	defer coord.Close()

	svc := clipservice.NewService(core.store, core.db, coord, core.ledgers)

	logger.Info("MCP server listening on stdio")
	return mcpserver.New(svc).ServeStdio()
}
