// Package models defines the domain types for ansuz.
package models

import "time"

// Category is the outcome of classifying a fetched page.
type Category string

const (
	CategoryProduct Category = "product"
	CategoryArticle Category = "article"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryProduct || c == CategoryArticle
}

// Status returns the ledger status label for the category.
func (c Category) Status() string {
	if c == CategoryProduct {
		return "wishlist"
	}
	return "to-read"
}

// LinkMetadata is everything the pipeline knows about a fetched page.
type LinkMetadata struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
	StatusCode  int    `json:"status_code"`
}

// LedgerEntry is one captured link in a category ledger.
type LedgerEntry struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	ClippedNote string `json:"clippedNote"`
	Captured    string `json:"captured"`
	Status      string `json:"status"`
}

// Ledger is the on-disk ledger document.
type Ledger struct {
	Entries []LedgerEntry `json:"entries"`
}

// FileInfo is lightweight file metadata returned by storage listings.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
