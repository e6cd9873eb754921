// Package build rewrites every note of a vault into reference-style Markdown
// and records the emitted definitions in the index.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/foamlinks/internal/checksum"
	"github.com/starford/foamlinks/internal/index"
	"github.com/starford/foamlinks/internal/models"
	"github.com/starford/foamlinks/internal/storage"
	"github.com/starford/foamlinks/internal/vault"
	"github.com/starford/foamlinks/pkg/foamlinks"
)

// Options tunes a Pipeline.
type Options struct {
	// Workers bounds the number of notes transformed concurrently.
	// Zero means GOMAXPROCS.
	Workers int
	Links   foamlinks.Config
}

// Report summarizes one build.
type Report struct {
	Documents  int      `json:"documents"`
	Written    int      `json:"written"`
	Unchanged  int      `json:"unchanged"`
	References int      `json:"references"`
	Unresolved int      `json:"unresolved"`
	Removed    []string `json:"removed,omitempty"`
}

// Pipeline reads notes from src, writes rewritten notes to out and records
// them in db.
type Pipeline struct {
	src    storage.Provider
	out    storage.Provider
	db     index.NoteIndex
	logger *slog.Logger
	opts   Options
}

// New creates a Pipeline.
func New(src, out storage.Provider, db index.NoteIndex, logger *slog.Logger, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{src: src, out: out, db: db, logger: logger, opts: opts}
}

// Run performs a full build. Notes whose rendered output did not change since
// the previous build are not rewritten. Notes that disappeared from the vault
// are removed from the index and the output tree.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	snap, err := vault.Load(ctx, p.src, p.logger)
	if err != nil {
		return nil, fmt.Errorf("build: load vault: %w", err)
	}

	var written, unchanged, refs, unresolved atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for _, note := range snap.Notes {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			content, res := Render(note, snap.Corpus, p.opts.Links)

			changed, err := p.publish(note, content, res)
			if err != nil {
				return err
			}
			if changed {
				written.Add(1)
			} else {
				unchanged.Add(1)
			}
			refs.Add(int64(res.References))
			unresolved.Add(int64(len(res.Unresolved)))

			p.logger.Debug("foamlinks: processed",
				slog.String("path", note.Document.Path),
				slog.Int("references", res.References),
				slog.Bool("written", changed))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Unreadable notes stay listed and keep their previous output.
	keep := make(map[string]struct{}, len(snap.Paths))
	for _, rel := range snap.Paths {
		keep[rel] = struct{}{}
	}
	removed, err := index.Prune(p.db, keep, p.logger)
	if err != nil {
		return nil, fmt.Errorf("build: prune index: %w", err)
	}
	for _, path := range removed {
		if err := p.out.Delete(path); err != nil {
			p.logger.Warn("build: delete stale output failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}

	return &Report{
		Documents:  len(snap.Notes),
		Written:    int(written.Load()),
		Unchanged:  int(unchanged.Load()),
		References: int(refs.Load()),
		Unresolved: int(unresolved.Load()),
		Removed:    removed,
	}, nil
}

// publish writes content to the output tree unless an identical copy is
// already there, then records the note in the index.
func (p *Pipeline) publish(note vault.Note, content []byte, res foamlinks.Result) (bool, error) {
	path := note.Document.Path
	sum := checksum.Sum(content)

	prev, err := p.db.GetChecksum(path)
	if err != nil {
		return false, err
	}
	changed := prev != sum
	if !changed {
		// Missing or hand-edited output is rewritten.
		if data, err := p.out.Read(path); err != nil || !checksum.Matches(data, sum) {
			changed = true
		}
	}
	if changed {
		if err := p.out.Write(path, content); err != nil {
			return false, fmt.Errorf("build: write %s: %w", path, err)
		}
	}

	updated := note.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	row := index.NoteRow{
		Path:      path,
		Title:     foamlinks.Title(note.Document),
		Slug:      note.Document.Slug,
		Checksum:  sum,
		UpdatedAt: updated.UTC(),
	}
	if err := p.db.UpsertNote(row, References(path, res.Definitions)); err != nil {
		return false, fmt.Errorf("build: index %s: %w", path, err)
	}
	return changed, nil
}

// Render transforms note against corpus and returns the full output file:
// the original frontmatter block followed by the rewritten body.
func Render(note vault.Note, corpus *foamlinks.Corpus, cfg foamlinks.Config) ([]byte, foamlinks.Result) {
	res := foamlinks.Transform(note.Document, corpus, cfg)
	return []byte(note.Header + res.Body), res
}

// References converts definitions emitted for source into index rows.
func References(source string, defs []foamlinks.Definition) []models.Reference {
	out := make([]models.Reference, len(defs))
	for i, d := range defs {
		out[i] = models.Reference{
			Source:      source,
			Label:       d.Label,
			Kind:        string(d.Kind),
			Destination: d.Destination,
			Title:       d.Title,
			Document:    d.Document,
			Resolved:    d.Resolved,
		}
	}
	return out
}
