package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/storage"
)

// watcherTestEnv sets up a vault dir with the standard folders, storage,
// and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	vaultDir := t.TempDir()
	for _, d := range []string{"Clips", "Daily"} {
		if err := os.MkdirAll(filepath.Join(vaultDir, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	dbFile, err := os.CreateTemp("", "ansuz-watcher-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return vaultDir, store, db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func clipBody(title, url string) []byte {
	return []byte("---\ntitle: " + title +
		"\nsource: " + url +
		"\ncaptured: 2026-08-21 14:03\ncategory: article\norigin: Daily/2026-08-21.md\n---\n\n# " +
		title + "\n\nOriginal link: " + url + "\n")
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func testRoutes(notify func(string)) Routes {
	return Routes{
		ClipsFolder:  "Clips",
		SourceFolder: "Daily",
		DatePattern:  "2006-01-02",
		Notify:       notify,
	}
}

func TestWatcher_NewClipIndexed(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, vaultDir, testRoutes(nil), testLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(vaultDir, "Clips", "new.md"),
		clipBody("New Clip", "https://example.org/new"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("Clips/new.md")
		return cs != ""
	}, "new clip not indexed by watcher")

	row, err := db.GetClip("Clips/new.md")
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if row.URL != "https://example.org/new" || row.Title != "New Clip" {
		t.Errorf("indexed row = %+v", row)
	}

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:Clips/new.md" {
				return true
			}
		}
		return false
	}, "expected created:Clips/new.md callback")
}

func TestWatcher_DailyNoteRouted(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var docs []string
	routes := testRoutes(func(doc string) {
		mu.Lock()
		docs = append(docs, doc)
		mu.Unlock()
	})

	go Watch(ctx, db, store, vaultDir, routes, testLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	// A scratch note in the source folder does not match the date pattern.
	_ = os.WriteFile(filepath.Join(vaultDir, "Daily", "scratch.md"), []byte("notes"), 0o644)
	_ = os.WriteFile(filepath.Join(vaultDir, "Daily", "2026-08-21.md"),
		[]byte("https://example.org/a\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, d := range docs {
			if d == "Daily/2026-08-21.md" {
				return true
			}
		}
		return false
	}, "daily note change not routed")

	mu.Lock()
	defer mu.Unlock()
	for _, d := range docs {
		if d == "Daily/scratch.md" {
			t.Error("scratch note should not be routed")
		}
	}

	// Daily notes never enter the clip index.
	if cs, _ := db.GetChecksum("Daily/2026-08-21.md"); cs != "" {
		t.Error("daily note leaked into the index")
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, vaultDir, testRoutes(nil), testLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(vaultDir, "Clips", "archive")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(300 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.md"),
		clipBody("Deep", "https://example.org/deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("Clips/archive/deep.md")
		return cs != ""
	}, "clip in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(vaultDir, "Clips", "del.md"),
		clipBody("Delete Me", "https://example.org/del"), 0o644)
	Sync(db, store, "Clips", testLogger())

	cs, _ := db.GetChecksum("Clips/del.md")
	if cs == "" {
		t.Fatal("precondition: clip should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, vaultDir, testRoutes(nil), testLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(vaultDir, "Clips", "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("Clips/del.md")
		return cs == ""
	}, "deleted clip still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(vaultDir, "Clips", "old.md"),
		clipBody("Rename", "https://example.org/ren"), 0o644)
	Sync(db, store, "Clips", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, vaultDir, testRoutes(nil), testLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(vaultDir, "Clips", "old.md"), filepath.Join(vaultDir, "Clips", "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("Clips/old.md")
		newCS, _ := db.GetChecksum("Clips/renamed.md")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}

func TestSync_IndexesAndPrunes(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(vaultDir, "Clips", "keep.md"),
		clipBody("Keep", "https://example.org/keep"), 0o644)
	if err := Sync(db, store, "Clips", testLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	row, err := db.GetClip("Clips/keep.md")
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if row.Category != "article" || row.URL != "https://example.org/keep" {
		t.Errorf("row = %+v", row)
	}

	// Remove on disk, then sync again: the index entry goes away.
	_ = os.Remove(filepath.Join(vaultDir, "Clips", "keep.md"))
	if err := Sync(db, store, "Clips", testLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("Clips/keep.md"); cs != "" {
		t.Error("stale entry survived sync")
	}
}
