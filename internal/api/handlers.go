package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/clipservice"
	"github.com/starford/ansuz/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *clipservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *clipservice.Service) *Handler {
	return &Handler{svc: svc}
}

// clipPath extracts the clip path from the URL (everything after /api/clips/).
// Supports encoded slashes from OpenAPI clients (e.g. Clips%2Fergo-chair.md).
func clipPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListClips handles GET /api/clips.
//
//	@Summary		List clips with optional pagination and category filter
//	@Tags			clips
//	@Produce		json
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			category	query		string	false	"Filter by category"	Enums(product, article)
//	@Success		200			{object}	ClipListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clips [get]
func (h *Handler) ListClips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	category := q.Get("category")
	if category != "" && !models.Category(category).Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown category"))
		return
	}

	items, total, err := h.svc.ListClips(r.Context(), category, limit, offset)
	if err != nil {
		slog.Error("list clips failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"clips": items,
		"total": total,
	})
}

// GetClip handles GET /api/clips/*.
//
//	@Summary		Get a single clip by path
//	@Tags			clips
//	@Produce		json
//	@Param			path	path		string	true	"Clip path"
//	@Success		200		{object}	ClipDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clips/{path} [get]
func (h *Handler) GetClip(w http.ResponseWriter, r *http.Request) {
	path := clipPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	clip, err := h.svc.GetClip(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get clip failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, clip)
}

// ClipLink handles POST /api/clips.
//
//	@Summary		Clip a single link immediately
//	@Tags			clips
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ClipLinkRequest	true	"Link to clip"
//	@Success		201		{object}	Capture
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clips [post]
func (h *Handler) ClipLink(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ClipLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		writeJSON(w, http.StatusBadRequest, errorBody("url must be http or https"))
		return
	}
	captured, err := h.svc.ClipURL(r.Context(), req.URL, "api")
	if err != nil {
		if errors.Is(err, apperr.ErrNameExhausted) {
			writeJSON(w, http.StatusConflict, errorBody("no free note name for this clip"))
		} else {
			slog.Error("clip link failed", slog.String("url", req.URL), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, captured)
}

// Scan handles POST /api/scan.
//
//	@Summary		Scan a daily note for new links now
//	@Tags			intake
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ScanRequest	true	"Daily note to scan"
//	@Success		200		{object}	ScanResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scan [post]
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Doc == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("doc is required"))
		return
	}
	if err := h.svc.ScanNow(r.Context(), req.Doc); err != nil {
		slog.Error("scan failed", slog.String("doc", req.Doc), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ScanResponse{Doc: req.Doc})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across clips
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Ledger handles GET /api/ledgers/{category}.
//
//	@Summary		Get the capture ledger for a category
//	@Tags			ledgers
//	@Produce		json
//	@Param			category	path		string	true	"Ledger category"	Enums(product, article)
//	@Success		200			{object}	LedgerResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ledgers/{category} [get]
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	category := models.Category(chi.URLParam(r, "category"))
	doc, err := h.svc.Ledger(r.Context(), category)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("unknown ledger"))
		} else {
			slog.Error("ledger failed", slog.String("category", string(category)), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
