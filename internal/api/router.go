package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/ansuz/internal/clipservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *clipservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Clips.
	r.Get("/clips", h.ListClips)
	r.Post("/clips", h.ClipLink)
	r.Get("/clips/*", h.GetClip)

	// Intake.
	r.Post("/scan", h.Scan)

	// Search.
	r.Get("/search", h.Search)

	// Ledgers.
	r.Get("/ledgers/{category}", h.Ledger)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
