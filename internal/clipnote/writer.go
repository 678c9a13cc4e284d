package clipnote

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/slug"
	"github.com/starford/ansuz/internal/storage"
)

// maxProbe bounds the -1…-N suffix search for a free note name.
const maxProbe = 99

// Writer places rendered notes in the clips folder. A candidate file that
// already contains the source URL is refreshed in place; candidates taken
// by other URLs are probed past with numeric suffixes.
type Writer struct {
	store  storage.Provider
	folder string
	logger *slog.Logger
}

func NewWriter(store storage.Provider, folder string, logger *slog.Logger) *Writer {
	return &Writer{store: store, folder: folder, logger: logger}
}

// Write renders and stores the note, returning its vault-relative path and
// whether an existing note for the same URL was refreshed.
func (w *Writer) Write(meta models.LinkMetadata, category models.Category, origin string, now time.Time) (string, bool, error) {
	base := slug.Make(meta.Title)
	if base == "" {
		base = slug.Fallback(now)
	}
	body, err := Render(meta, category, origin, now)
	if err != nil {
		return "", false, err
	}

	for i := 0; i <= maxProbe; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		notePath := path.Join(w.folder, name+".md")

		existing, err := w.store.Read(notePath)
		if errors.Is(err, os.ErrNotExist) {
			if err := w.store.Write(notePath, body); err != nil {
				return "", false, fmt.Errorf("clipnote: write %s: %w", notePath, err)
			}
			return notePath, false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("clipnote: probe %s: %w", notePath, err)
		}
		if bytes.Contains(existing, []byte(meta.URL)) {
			// Same page clipped again: refresh rather than duplicate.
			if err := w.store.Write(notePath, body); err != nil {
				return "", false, fmt.Errorf("clipnote: refresh %s: %w", notePath, err)
			}
			return notePath, true, nil
		}
	}
	return "", false, fmt.Errorf("clipnote: no free name for %q after %d candidates: %w",
		base, maxProbe+1, apperr.ErrNameExhausted)
}
