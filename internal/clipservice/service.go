// Package clipservice coordinates storage, index, ledgers, and the intake
// pipeline behind one facade for the API and MCP surfaces.
package clipservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/intake"
	"github.com/starford/ansuz/internal/ledger"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/notes"
	"github.com/starford/ansuz/internal/storage"
)

// ClipDetail is the full representation of a clip note.
type ClipDetail struct {
	Path     string          `json:"path"`
	Title    string          `json:"title"`
	URL      string          `json:"url"`
	Category models.Category `json:"category,omitempty"`
	Captured time.Time       `json:"captured"`
	Origin   string          `json:"origin,omitempty"`
	Content  string          `json:"content"`
	Checksum string          `json:"checksum"`
}

// ClipListItem is a lightweight item in a list response.
type ClipListItem struct {
	Path      string          `json:"path"`
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	Category  models.Category `json:"category,omitempty"`
	Captured  time.Time       `json:"captured"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Service coordinates clip reads, search, ledgers, and intake operations.
type Service struct {
	store   storage.Provider
	db      *index.DB
	coord   *intake.Coordinator
	ledgers *ledger.Book
}

// NewService creates a new clip service.
func NewService(store storage.Provider, db *index.DB, coord *intake.Coordinator, ledgers *ledger.Book) *Service {
	return &Service{store: store, db: db, coord: coord, ledgers: ledgers}
}

// GetClip reads a clip note from storage and parses its fields. Storage is
// the source of truth here; the index only serves listings and search.
func (s *Service) GetClip(_ context.Context, path string) (*ClipDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	clip := notes.Parse(data)
	return &ClipDetail{
		Path:     path,
		Title:    clip.Title,
		URL:      clip.Source,
		Category: clip.Category,
		Captured: clip.Captured,
		Origin:   clip.Origin,
		Content:  string(data),
		Checksum: storage.Checksum(data),
	}, nil
}

// ListClips returns paginated clips with an optional category filter.
func (s *Service) ListClips(_ context.Context, category string, limit, offset int) ([]ClipListItem, int, error) {
	rows, total, err := s.db.ListClips(category, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ClipListItem, len(rows))
	for i, r := range rows {
		items[i] = ClipListItem{
			Path:      r.Path,
			Title:     r.Title,
			URL:       r.URL,
			Category:  r.Category,
			Captured:  r.Captured,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Ledger returns the on-disk ledger document for a category.
func (s *Service) Ledger(_ context.Context, category models.Category) (models.Ledger, error) {
	if !category.Valid() {
		return models.Ledger{}, apperr.ErrNotFound
	}
	return s.ledgers.Read(category)
}

// ClipURL captures a single link directly, bypassing the daily note flow.
// origin names the requesting surface and ends up in the clip front matter.
func (s *Service) ClipURL(ctx context.Context, url, origin string) (intake.Capture, error) {
	return s.coord.ClipURL(ctx, url, origin)
}

// ScanNow runs a synchronous scan of one daily note.
func (s *Service) ScanNow(ctx context.Context, doc string) error {
	return s.coord.Scan(ctx, doc)
}
