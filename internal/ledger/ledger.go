// Package ledger maintains the per-category JSON capture ledgers.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// Book manages the category ledger documents on the vault store.
type Book struct {
	store  storage.Provider
	paths  map[models.Category]string
	logger *slog.Logger
}

func NewBook(store storage.Provider, productPath, articlePath string, logger *slog.Logger) *Book {
	return &Book{
		store: store,
		paths: map[models.Category]string{
			models.CategoryProduct: productPath,
			models.CategoryArticle: articlePath,
		},
		logger: logger,
	}
}

// Path returns the document path backing a category's ledger.
func (b *Book) Path(category models.Category) (string, bool) {
	p, ok := b.paths[category]
	return p, ok
}

// Read returns the parsed ledger for a category. Missing or unparseable
// documents read as empty.
func (b *Book) Read(category models.Category) (models.Ledger, error) {
	path, ok := b.paths[category]
	if !ok {
		return models.Ledger{}, fmt.Errorf("ledger: no ledger for category %q", category)
	}
	doc, err := b.load(path)
	if err != nil {
		return models.Ledger{}, err
	}
	if doc.Entries == nil {
		doc.Entries = []models.LedgerEntry{}
	}
	return doc, nil
}

// Append records a capture unless the exact URL is already present; the
// first capture of a URL wins and is never rewritten. Reports whether the
// document changed.
func (b *Book) Append(category models.Category, entry models.LedgerEntry) (bool, error) {
	path, ok := b.paths[category]
	if !ok {
		return false, fmt.Errorf("ledger: no ledger for category %q", category)
	}
	doc, err := b.load(path)
	if err != nil {
		return false, err
	}
	for _, e := range doc.Entries {
		if e.URL == entry.URL {
			return false, nil
		}
	}
	doc.Entries = append(doc.Entries, entry)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, fmt.Errorf("ledger: marshal: %w", err)
	}
	data = append(data, '\n')
	if err := b.store.Write(path, data); err != nil {
		return false, fmt.Errorf("ledger: write %s: %w", path, err)
	}
	return true, nil
}

func (b *Book) load(path string) (models.Ledger, error) {
	var doc models.Ledger
	data, err := b.store.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("ledger: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		// Unparseable documents self-heal: start fresh rather than block capture.
		b.logger.Warn("ledger: unparseable document, starting fresh", "path", path, "error", err)
		return models.Ledger{}, nil
	}
	return doc, nil
}

// NewEntry builds the ledger record for a captured link.
func NewEntry(meta models.LinkMetadata, notePath string, category models.Category, now time.Time) models.LedgerEntry {
	return models.LedgerEntry{
		Title:       meta.Title,
		URL:         meta.URL,
		ClippedNote: notePath,
		Captured:    now.Format(time.RFC3339),
		Status:      category.Status(),
	}
}
