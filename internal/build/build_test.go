package build

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/foamlinks/internal/index"
	"github.com/starford/foamlinks/internal/storage"
	"github.com/starford/foamlinks/pkg/foamlinks"
)

type fixture struct {
	src *storage.FS
	out *storage.FS
	db  *index.DB
	log *bytes.Buffer
	p   *Pipeline
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	src, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	out, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for p, body := range files {
		require.NoError(t, src.Write(p, []byte(body)))
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &fixture{
		src: src,
		out: out,
		db:  db,
		log: &buf,
		p:   New(src, out, db, logger, Options{Workers: 2, Links: foamlinks.Config{TagBaseURL: "/tags/"}}),
	}
}

func (f *fixture) read(t *testing.T, path string) string {
	t.Helper()
	data, err := f.out.Read(path)
	require.NoError(t, err)
	return string(data)
}

func TestRun_WritesRewrittenNotes(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.md":         "---\ntitle: Home\n---\nSee [[note]] and [[ghost]] #go\n",
		"notes/note.md":    "# A Note\nplain text\n",
		"assets/image.png": "not markdown",
	})

	rep, err := f.p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Documents)
	assert.Equal(t, 2, rep.Written)
	assert.Equal(t, 3, rep.References)
	assert.Equal(t, 1, rep.Unresolved)

	home := f.read(t, "index.md")
	assert.True(t, strings.HasPrefix(home, "---\ntitle: Home\n---\nSee [note] and [ghost] [#go]\n"))
	assert.Contains(t, home, `[note]: notes/note "A Note"`)
	assert.Contains(t, home, `[ghost]: ghost "ghost"`)
	assert.Contains(t, home, `[#go]: /tags/go "Tag: go"`)

	// Notes without references are copied unchanged.
	assert.Equal(t, "# A Note\nplain text\n", f.read(t, "notes/note.md"))

	_, err = f.out.Read("assets/image.png")
	assert.Error(t, err)

	bl, err := f.db.Backlinks("notes/note.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"index.md"}, bl)

	un, err := f.db.Unresolved()
	require.NoError(t, err)
	require.Len(t, un, 1)
	assert.Equal(t, "ghost", un[0].Label)

	row, err := f.db.GetNote("index.md")
	require.NoError(t, err)
	assert.Equal(t, "Home", row.Title)
	assert.Equal(t, 3, row.References)
}

func TestRun_LogsProcessedDocuments(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "@bob"})

	_, err := f.p.Run(context.Background())
	require.NoError(t, err)

	logs := f.log.String()
	assert.Contains(t, logs, `"msg":"foamlinks: processed"`)
	assert.Contains(t, logs, `"path":"a.md"`)
	assert.Contains(t, logs, `"references":1`)
}

func TestRun_SkipsUnchangedOutput(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "[[b]]", "b.md": "# B"})

	_, err := f.p.Run(context.Background())
	require.NoError(t, err)

	rep, err := f.p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Written)
	assert.Equal(t, 2, rep.Unchanged)

	// Changing a target's title changes the referencing note's output.
	require.NoError(t, f.src.Write("b.md", []byte("# Bee")))
	rep, err = f.p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Written)
	assert.Contains(t, f.read(t, "a.md"), `[b]: b "Bee"`)
}

func TestRun_RewritesMissingOutput(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "text"})

	_, err := f.p.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.out.Delete("a.md"))

	rep, err := f.p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Written)
	assert.Equal(t, "text", f.read(t, "a.md"))
}

func TestRun_RemovesStaleNotes(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "[[b]]", "b.md": "# B"})

	_, err := f.p.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.src.Delete("b.md"))

	rep, err := f.p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md"}, rep.Removed)

	_, err = f.out.Read("b.md")
	assert.Error(t, err)
	assert.Contains(t, f.read(t, "a.md"), `[b]: b "b"`)
}

func TestRun_StampsVaultModTime(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "[[b]]", "b.md": "# B"})
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(f.src.Root(), "b.md"), mtime, mtime))

	_, err := f.p.Run(context.Background())
	require.NoError(t, err)
	_, err = f.p.Run(context.Background())
	require.NoError(t, err)

	row, err := f.db.GetNote("b.md")
	require.NoError(t, err)
	assert.True(t, row.UpdatedAt.Equal(mtime), "updated_at = %v, want %v", row.UpdatedAt, mtime)
}

// unreadable fails reads of one vault path.
type unreadable struct {
	*storage.FS
	path string
}

func (u unreadable) Read(path string) ([]byte, error) {
	if path == u.path {
		return nil, errors.New("read failed")
	}
	return u.FS.Read(path)
}

func TestRun_KeepsUnreadableNotes(t *testing.T) {
	f := newFixture(t, map[string]string{"a.md": "[[b]]", "b.md": "# B\n[[a]]"})

	_, err := f.p.Run(context.Background())
	require.NoError(t, err)
	before := f.read(t, "b.md")

	p := New(unreadable{FS: f.src, path: "b.md"}, f.out, f.db, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{Workers: 2})
	rep, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Documents)
	assert.Empty(t, rep.Removed)
	assert.Equal(t, before, f.read(t, "b.md"))
	_, err = f.db.GetNote("b.md")
	assert.NoError(t, err)
}

func TestReferences(t *testing.T) {
	defs := []foamlinks.Definition{
		{Label: "x", Destination: "notes/x", Title: "X", Kind: foamlinks.KindEmbed, Resolved: true, Document: "notes/x.md"},
		{Label: "@al", Destination: "mentions/al", Title: "Mention: al", Kind: foamlinks.KindMention, Resolved: true},
	}
	got := References("src.md", defs)
	require.Len(t, got, 2)
	assert.Equal(t, "src.md", got[0].Source)
	assert.Equal(t, "embed", got[0].Kind)
	assert.Equal(t, "notes/x.md", got[0].Document)
	assert.Equal(t, "mention", got[1].Kind)
}

func TestNew_DefaultsWorkers(t *testing.T) {
	p := New(nil, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{})
	assert.Positive(t, p.opts.Workers)
}
