// Package foamlinks resolves Foam/Obsidian-style wikilinks, embeds, hashtags and
// mentions against a corpus of Markdown documents and rewrites them into plain
// reference-style Markdown links.
package foamlinks

import (
	"path"
	"strings"
)

// TextExtensions lists the document extensions that take part in resolution.
var TextExtensions = []string{".md", ".markdown"}

// Document is a single corpus entry.
type Document struct {
	// Path is the corpus-relative, slash-separated path (e.g. "notes/note.md").
	Path        string
	Body        string
	FrontMatter map[string]any
	// Slug is the explicit slug declared by the document, if any.
	Slug string
}

// IsText reports whether the document has a recognized text extension.
func (d Document) IsText() bool {
	return IsTextPath(d.Path)
}

// IsTextPath reports whether p ends with a recognized text extension.
func IsTextPath(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, e := range TextExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Config holds the per-build settings. Empty values mean "not configured".
type Config struct {
	TagBaseURL     string
	MentionBaseURL string
}

// Corpus is the ordered, read-only set of documents visible for resolution.
// It is safe for concurrent use once constructed.
type Corpus struct {
	docs   []Document
	byBase map[string]int
	bySlug map[string]int
}

// NewCorpus builds a corpus from docs, keeping only text documents in their
// original order.
func NewCorpus(docs []Document) *Corpus {
	c := &Corpus{
		byBase: make(map[string]int, len(docs)),
		bySlug: make(map[string]int),
	}
	for _, d := range docs {
		if !d.IsText() {
			continue
		}
		i := len(c.docs)
		c.docs = append(c.docs, d)

		if b := baseName(d.Path); b != "" {
			if _, ok := c.byBase[b]; !ok {
				c.byBase[b] = i
			}
		}
		if s := d.Slug; s != "" {
			if _, ok := c.bySlug[s]; !ok {
				c.bySlug[s] = i
			}
		}
	}
	return c
}

// Len returns the number of documents in the corpus.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.docs)
}

// Find resolves target text to the first document, in corpus order, whose base
// name or declared slug equals the base name of target.
func (c *Corpus) Find(target string) (Document, bool) {
	if c == nil {
		return Document{}, false
	}
	b := baseName(target)
	if b == "" {
		return Document{}, false
	}
	bi, okBase := c.byBase[b]
	si, okSlug := c.bySlug[b]
	switch {
	case okBase && okSlug:
		return c.docs[min(bi, si)], true
	case okBase:
		return c.docs[bi], true
	case okSlug:
		return c.docs[si], true
	}
	return Document{}, false
}

// baseName strips directory components and a single extension.
func baseName(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	b := path.Base(p)
	if b == "." || b == "/" {
		return ""
	}
	return strings.TrimSuffix(b, path.Ext(b))
}
