// Package noteservice coordinates the vault, the reference index and the
// rewrite engine for the HTTP and MCP transports.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/starford/foamlinks/internal/apperr"
	"github.com/starford/foamlinks/internal/build"
	"github.com/starford/foamlinks/internal/checksum"
	"github.com/starford/foamlinks/internal/index"
	"github.com/starford/foamlinks/internal/models"
	"github.com/starford/foamlinks/internal/parser"
	"github.com/starford/foamlinks/internal/render"
	"github.com/starford/foamlinks/internal/storage"
	"github.com/starford/foamlinks/internal/vault"
	"github.com/starford/foamlinks/pkg/foamlinks"
)

// DefaultSource is the document path assumed for ad-hoc bodies.
const DefaultSource = "untitled.md"

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string             `json:"path"`
	Title       string             `json:"title"`
	Slug        string             `json:"slug,omitempty"`
	Checksum    string             `json:"checksum"`
	Content     string             `json:"content"`
	Rendered    string             `json:"rendered"`
	HTML        string             `json:"html"`
	Frontmatter map[string]any     `json:"frontmatter,omitempty"`
	Definitions []models.Reference `json:"definitions"`
	Unresolved  []string           `json:"unresolved"`
	Backlinks   []string           `json:"backlinks"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path       string    `json:"path"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug,omitempty"`
	Checksum   string    `json:"checksum"`
	References int       `json:"references"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TransformResult is the outcome of rewriting an ad-hoc body.
type TransformResult struct {
	Source      string             `json:"source"`
	Body        string             `json:"body"`
	References  int                `json:"references"`
	Definitions []models.Reference `json:"definitions"`
	Unresolved  []string           `json:"unresolved"`
}

// Resolution describes where a wikilink target points from a source note.
type Resolution struct {
	Target string `json:"target"`
	// Definition is the rendered definition line.
	Definition string           `json:"definition"`
	Reference  models.Reference `json:"reference"`
}

// Service coordinates storage, index and engine operations.
type Service struct {
	store    storage.Provider
	db       index.NoteIndex
	pipeline *build.Pipeline
	links    foamlinks.Config
	renderer *render.MarkdownRenderer
	logger   *slog.Logger

	mu   sync.RWMutex
	snap *vault.Snapshot
}

// NewService creates a new note service. pipeline may be nil, in which case
// Build is unavailable.
func NewService(store storage.Provider, db index.NoteIndex, pipeline *build.Pipeline, links foamlinks.Config, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		db:       db,
		pipeline: pipeline,
		links:    links,
		renderer: render.NewMarkdownRenderer(),
		logger:   logger,
	}
}

// Reload re-reads the vault and replaces the corpus used for resolution.
func (s *Service) Reload(ctx context.Context) error {
	snap, err := vault.Load(ctx, s.store, s.logger)
	if err != nil {
		return fmt.Errorf("noteservice: reload: %w", err)
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

// Build runs the build pipeline and reloads the corpus.
func (s *Service) Build(ctx context.Context) (*build.Report, error) {
	if s.pipeline == nil {
		return nil, errors.New("noteservice: build pipeline not configured")
	}
	rep, err := s.pipeline.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return rep, nil
}

// corpus returns the current corpus, loading it on first use.
func (s *Service) corpus(ctx context.Context) (*foamlinks.Corpus, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap != nil {
		return snap.Corpus, nil
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Corpus, nil
}

// GetNote reads a note from storage, rewrites it against the current corpus
// and enriches it with backlinks. HTML is rendered from the rewritten body
// without the frontmatter.
func (s *Service) GetNote(ctx context.Context, path string) (*NoteDetail, error) {
	if !foamlinks.IsTextPath(path) {
		return nil, apperr.ErrNotText
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	doc, res, err := parser.Document(path, data)
	if err != nil {
		return nil, err
	}
	corpus, err := s.corpus(ctx)
	if err != nil {
		return nil, err
	}

	out, tr := build.Render(vault.Note{Document: doc, Header: res.Header}, corpus, s.links)
	html, err := s.renderer.Render([]byte(tr.Body))
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Path:        path,
		Title:       foamlinks.Title(doc),
		Slug:        doc.Slug,
		Checksum:    checksum.Sum(data),
		Content:     string(data),
		Rendered:    string(out),
		HTML:        string(html),
		Frontmatter: res.Frontmatter,
		Definitions: nonNilSlice(build.References(path, tr.Definitions)),
		Unresolved:  nonNilSlice(tr.Unresolved),
		Backlinks:   nonNilSlice(bl),
	}, nil
}

// ListNotes returns a page of indexed notes.
func (s *Service) ListNotes(_ context.Context, limit, offset int, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:       r.Path,
			Title:      r.Title,
			Slug:       r.Slug,
			Checksum:   r.Checksum,
			References: r.References,
			UpdatedAt:  r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Transform rewrites body as if it were the document at source. Frontmatter
// in body is preserved. An empty source defaults to DefaultSource.
func (s *Service) Transform(ctx context.Context, source, body string) (*TransformResult, error) {
	if source == "" {
		source = DefaultSource
	}
	doc, res, err := parser.Document(source, []byte(body))
	if err != nil {
		return nil, err
	}
	corpus, err := s.corpus(ctx)
	if err != nil {
		return nil, err
	}
	out, tr := build.Render(vault.Note{Document: doc, Header: res.Header}, corpus, s.links)
	return &TransformResult{
		Source:      source,
		Body:        string(out),
		References:  tr.References,
		Definitions: nonNilSlice(build.References(source, tr.Definitions)),
		Unresolved:  nonNilSlice(tr.Unresolved),
	}, nil
}

// Resolve reports how [[target]] written in source would resolve.
func (s *Service) Resolve(ctx context.Context, source, target string) (*Resolution, error) {
	if source == "" {
		source = DefaultSource
	}
	corpus, err := s.corpus(ctx)
	if err != nil {
		return nil, err
	}
	def := foamlinks.Resolve(foamlinks.Document{Path: source}, corpus, s.links, target)
	refs := build.References(source, []foamlinks.Definition{def})
	return &Resolution{
		Target:     target,
		Definition: def.String(),
		Reference:  refs[0],
	}, nil
}

// Backlinks returns all note paths whose links resolved to path.
func (s *Service) Backlinks(_ context.Context, path string) ([]string, error) {
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(bl), nil
}

// Unresolved returns every placeholder definition recorded by the last build.
func (s *Service) Unresolved(_ context.Context) ([]models.Reference, error) {
	refs, err := s.db.Unresolved()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(refs), nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
