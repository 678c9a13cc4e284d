package api

import (
	"github.com/starford/ansuz/internal/clipservice"
	"github.com/starford/ansuz/internal/intake"
	"github.com/starford/ansuz/internal/models"
)

// ClipLinkRequest is the request body for clipping a link directly.
type ClipLinkRequest struct {
	URL string `json:"url" example:"https://example.org/article" validate:"required"`
}

// ScanRequest is the request body for scanning a daily note immediately.
type ScanRequest struct {
	Doc string `json:"doc" example:"Daily/2026-08-21.md" validate:"required"`
}

// ClipDetail is the full clip response type (aliased from the domain layer).
type ClipDetail = clipservice.ClipDetail

// ClipListItem is a lightweight item in a list response (aliased from the domain layer).
type ClipListItem = clipservice.ClipListItem

// Capture describes the outcome of a direct clip (aliased from the intake layer).
type Capture = intake.Capture

// ClipListResponse wraps paginated clip listings.
type ClipListResponse struct {
	Clips []ClipListItem `json:"clips" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// ScanResponse acknowledges a completed scan.
type ScanResponse struct {
	Doc string `json:"doc" example:"Daily/2026-08-21.md" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"Clips/ergo-chair.md" validate:"required"`
	Title   string `json:"title" example:"Ergo Chair" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// LedgerResponse is the ledger document served per category.
type LedgerResponse = models.Ledger
