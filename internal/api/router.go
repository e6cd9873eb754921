package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/foamlinks/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)

	// Rewriting.
	r.Post("/transform", h.Transform)
	r.Get("/resolve", h.Resolve)
	r.Post("/build", h.Build)

	// Reference reports.
	r.Get("/references/unresolved", h.Unresolved)
	r.Get("/backlinks/*", h.Backlinks)

	return r
}
