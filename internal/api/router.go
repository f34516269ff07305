package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/getlost/portal/internal/contentservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *contentservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Report uploads.
	r.Post("/reports/upload", h.UploadReport)

	// Content records.
	r.Get("/content/{id}", h.GetRecord)
	r.Get("/books/{bookID}/content", h.ListBookContent)

	// Seeded content.
	r.Get("/seeded", h.ListSeeded)
	r.Get("/seeded/match", h.Match)
	r.Post("/seeded/{id}/link", h.LinkSeeded)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
