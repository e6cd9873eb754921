// Package render converts rewritten Markdown to HTML.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// MarkdownRenderer renders CommonMark with GitHub extensions. Reference-style
// links and their definitions resolve the way any CommonMark reader sees them.
// Raw HTML in notes is omitted from the output.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer returns a renderer safe for concurrent use.
func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	return &MarkdownRenderer{md: md}
}

// Render converts src to HTML.
func (r *MarkdownRenderer) Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
