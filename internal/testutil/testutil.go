// Package testutil provides shared test helpers for setting up vaults,
// databases, and the clipping stack.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/classify"
	"github.com/starford/ansuz/internal/clipnote"
	"github.com/starford/ansuz/internal/clipservice"
	"github.com/starford/ansuz/internal/fetch"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/intake"
	"github.com/starford/ansuz/internal/ledger"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestLogger returns a JSON logger that only reports errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Stack bundles a ready-to-use clipping stack over a temp vault: clips land
// in Clips/, ledgers in Ledgers/, and the classifier falls back to article
// with no network credentials.
type Stack struct {
	Store   storage.Provider
	DB      *index.DB
	Coord   *intake.Coordinator
	Ledgers *ledger.Book
	Service *clipservice.Service
	Logger  *slog.Logger
}

// NewStack builds the full stack. Credential env vars are cleared so the
// heuristic classifier always runs.
func NewStack(t *testing.T) *Stack {
	t.Helper()
	t.Setenv("ANSUZ_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	_, store := TestVault(t)
	db := TestDB(t)
	logger := TestLogger()

	state, err := intake.OpenState(filepath.Join(t.TempDir(), "state.json"), logger)
	if err != nil {
		t.Fatal(err)
	}
	book := ledger.NewBook(store, "Ledgers/products.json", "Ledgers/articles.json", logger)
	pipe := intake.NewPipeline(
		fetch.New(2*time.Second, 0, logger),
		classify.New(classify.Options{Fallback: models.CategoryArticle}, logger),
		clipnote.NewWriter(store, "Clips", logger),
		book,
		0,
		logger,
	)
	coord := intake.NewCoordinator(store, state, pipe, time.Second, logger, nil)
	t.Cleanup(coord.Close)

	return &Stack{
		Store:   store,
		DB:      db,
		Coord:   coord,
		Ledgers: book,
		Service: clipservice.NewService(store, db, coord, book),
		Logger:  logger,
	}
}
