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

	"github.com/starford/foamlinks/internal/apperr"
	"github.com/starford/foamlinks/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// wildcardPath extracts the path from the URL wildcard (everything after the
// route prefix). Supports encoded slashes (e.g. topics%2Fnote.md).
func wildcardPath(r *http.Request) string {
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

// ListNotes handles GET /api/notes.
//
//	@Summary		List indexed notes with optional pagination
//	@Tags			notes
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			sort	query		string	false	"Sort field"	Enums(path, title, updated)
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListNotes(r.Context(), limit, offset, q.Get("sort"))
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a note with its rewritten body and definitions
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeServiceError(w, "get note failed", path, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Transform handles POST /api/transform.
//
//	@Summary		Rewrite an ad-hoc Markdown body against the vault
//	@Tags			transform
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TransformRequest	true	"Body to rewrite"
//	@Success		200		{object}	TransformResult
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/transform [post]
func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := h.svc.Transform(r.Context(), req.Source, req.Content)
	if err != nil {
		writeServiceError(w, "transform failed", req.Source, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Resolve handles GET /api/resolve.
//
//	@Summary		Resolve a single wikilink target
//	@Tags			transform
//	@Produce		json
//	@Param			target	query		string	true	"Wikilink target, optionally with |alias"
//	@Param			source	query		string	false	"Source note path"
//	@Success		200		{object}	Resolution
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/resolve [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := q.Get("target")
	if strings.TrimSpace(target) == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'target' is required")
		return
	}
	res, err := h.svc.Resolve(r.Context(), q.Get("source"), target)
	if err != nil {
		writeServiceError(w, "resolve failed", target, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Build handles POST /api/build.
//
//	@Summary		Rebuild the output tree and the reference index
//	@Tags			build
//	@Produce		json
//	@Success		200	{object}	BuildReport
//	@Security		BearerAuth
//	@Router			/build [post]
func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Build(r.Context())
	if err != nil {
		slog.Error("build failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Unresolved handles GET /api/references/unresolved.
//
//	@Summary		List wikilinks that matched no note in the last build
//	@Tags			references
//	@Produce		json
//	@Success		200	{object}	UnresolvedResponse
//	@Security		BearerAuth
//	@Router			/references/unresolved [get]
func (h *Handler) Unresolved(w http.ResponseWriter, r *http.Request) {
	refs, err := h.svc.Unresolved(r.Context())
	if err != nil {
		slog.Error("unresolved failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, UnresolvedResponse{References: refs})
}

// Backlinks handles GET /api/backlinks/*.
//
//	@Summary		List notes linking to a note
//	@Tags			references
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	BacklinksResponse
//	@Failure		400		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{path} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	bl, err := h.svc.Backlinks(r.Context(), path)
	if err != nil {
		writeServiceError(w, "backlinks failed", path, err)
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Path: path, Backlinks: bl})
}

// writeServiceError maps service sentinels to HTTP statuses.
func writeServiceError(w http.ResponseWriter, msg, path string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "invalid path")
	case errors.Is(err, apperr.ErrNotText):
		writeError(w, http.StatusBadRequest, "not a markdown document")
	default:
		slog.Error(msg, slog.String("path", path), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
