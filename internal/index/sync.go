package index

import (
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/notes"
	"github.com/starford/ansuz/internal/storage"
)

// Sync walks the clips folder and brings the index up to date:
//   - new/changed clip notes are parsed and upserted
//   - clips removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, clipsFolder string, logger *slog.Logger) error {
	metas, err := store.List(clipsFolder)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteClip(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses a clip note and upserts it into the DB.
func indexFile(db *DB, path string, data []byte) error {
	clip := notes.Parse(data)

	row := ClipRow{
		Path:      path,
		Title:     clip.Title,
		URL:       clip.Source,
		Category:  clip.Category,
		Captured:  clip.Captured,
		Checksum:  storage.Checksum(data),
		UpdatedAt: time.Now(),
	}
	return db.UpsertClip(row, clip.Body)
}
