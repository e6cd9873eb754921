package api

import (
	"github.com/starford/foamlinks/internal/build"
	"github.com/starford/foamlinks/internal/models"
	"github.com/starford/foamlinks/internal/noteservice"
)

// TransformRequest is the request body for rewriting an ad-hoc body.
type TransformRequest struct {
	Source  string `json:"source,omitempty" example:"journal/today.md"`
	Content string `json:"content" example:"See [[hello]] #go" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// TransformResult is the response for POST /transform.
type TransformResult = noteservice.TransformResult

// Resolution is the response for GET /resolve.
type Resolution = noteservice.Resolution

// BuildReport is the response for POST /build.
type BuildReport = build.Report

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// UnresolvedResponse wraps placeholder definitions.
type UnresolvedResponse struct {
	References []models.Reference `json:"references" validate:"required"`
}

// BacklinksResponse lists notes linking to a path.
type BacklinksResponse struct {
	Path      string   `json:"path" example:"notes/hello.md" validate:"required"`
	Backlinks []string `json:"backlinks" validate:"required"`
}
