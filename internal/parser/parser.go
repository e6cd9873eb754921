// Package parser splits Markdown documents into frontmatter and body and
// derives the metadata used for wikilink resolution.
package parser

import (
	"bytes"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/starford/foamlinks/pkg/foamlinks"
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	// Header is the frontmatter block exactly as it appeared in the file,
	// including both delimiter lines, or empty when there is none.
	Header string
	Body   string
	Slug   string
}

// Parse extracts frontmatter and body from raw Markdown bytes. Titles are
// derived later by foamlinks.Title.
func Parse(data []byte) (*Result, error) {
	fm, header, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Header:      header,
		Body:        body,
		Slug:        stringField(fm, "slug"),
	}, nil
}

// Document converts a parsed file at path into a corpus document.
func Document(path string, data []byte) (foamlinks.Document, *Result, error) {
	res, err := Parse(data)
	if err != nil {
		return foamlinks.Document{}, nil, err
	}
	return foamlinks.Document{
		Path:        path,
		Body:        res.Body,
		FrontMatter: res.Frontmatter,
		Slug:        res.Slug,
	}, res, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, string, error) {
	const delim = "---"

	if !bytes.HasPrefix(data, []byte(delim+"\n")) && !bytes.HasPrefix(data, []byte(delim+"\r\n")) {
		return nil, "", string(data), nil
	}

	// Find end delimiter.
	rest := data[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter, treat everything as body.
		return nil, "", string(data), nil
	}

	yamlBlock := rest[:idx]
	headerEnd := len(delim) + idx + 1 + len(delim)
	// The header keeps the line break that terminates the closing delimiter.
	if headerEnd < len(data) && data[headerEnd] == '\r' {
		headerEnd++
	}
	if headerEnd < len(data) && data[headerEnd] == '\n' {
		headerEnd++
	}

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: return body only, no error.
		return nil, "", string(data), nil
	}

	return fm, string(data[:headerEnd]), string(data[headerEnd:]), nil
}

// stringField returns fm[key] as a trimmed string, or "" when absent or not
// representable as a scalar.
func stringField(fm map[string]interface{}, key string) string {
	v, ok := fm[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
