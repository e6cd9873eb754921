// Package vault loads the Markdown files of a directory tree into a corpus.
package vault

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/foamlinks/internal/parser"
	"github.com/starford/foamlinks/internal/storage"
	"github.com/starford/foamlinks/pkg/foamlinks"
)

// Note is one loaded vault file.
type Note struct {
	Document foamlinks.Document
	// Header is the frontmatter block exactly as read, or empty.
	Header    string
	Checksum  string
	UpdatedAt time.Time
}

// Snapshot is the set of notes read in one pass, in path order.
type Snapshot struct {
	Notes  []Note
	Corpus *foamlinks.Corpus
	// Paths lists every Markdown file found under the root, including files
	// that could not be read or parsed and are missing from Notes.
	Paths []string
}

// Load reads and parses every Markdown file under the store root. Files that
// cannot be read are logged and skipped but still listed in Paths.
func Load(ctx context.Context, store storage.Provider, logger *slog.Logger) (*Snapshot, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, err
	}

	loaded := make([]*Note, len(metas))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range metas {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := store.Read(m.Path)
			if err != nil {
				logger.Warn("vault: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				return nil
			}
			doc, res, err := parser.Document(m.Path, data)
			if err != nil {
				logger.Warn("vault: parse failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				return nil
			}
			loaded[i] = &Note{
				Document:  doc,
				Header:    res.Header,
				Checksum:  m.Checksum,
				UpdatedAt: m.UpdatedAt,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	paths := make([]string, len(metas))
	for i, m := range metas {
		paths[i] = m.Path
	}
	return newSnapshot(loaded, paths), nil
}

func newSnapshot(loaded []*Note, paths []string) *Snapshot {
	s := &Snapshot{Paths: paths}
	docs := make([]foamlinks.Document, 0, len(loaded))
	for _, n := range loaded {
		if n == nil {
			continue
		}
		s.Notes = append(s.Notes, *n)
		docs = append(docs, n.Document)
	}
	s.Corpus = foamlinks.NewCorpus(docs)
	return s
}
