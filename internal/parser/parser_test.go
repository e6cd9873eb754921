package parser

import (
	"testing"

	"github.com/starford/foamlinks/pkg/foamlinks"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\nslug: hello-world\ntags:\n  - go\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter["title"] != "Hello" {
		t.Errorf("title = %v, want %q", r.Frontmatter["title"], "Hello")
	}
	if r.Slug != "hello-world" {
		t.Errorf("slug = %q, want %q", r.Slug, "hello-world")
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
	if r.Header+r.Body != string(input) {
		t.Errorf("header + body should reproduce input, got %q", r.Header+r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Header != "" {
		t.Errorf("header = %q, want empty", r.Header)
	}
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Invalid YAML falls back to treating everything as body.
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_UnclosedFrontmatter(t *testing.T) {
	input := []byte("---\ntitle: x\nno closing\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestDocument_ScalarMetadata(t *testing.T) {
	doc, _, err := Document("a.md", []byte("---\ntitle: 2024\nslug: 7\n---\n# Heading\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := foamlinks.Title(doc); got != "2024" {
		t.Errorf("title = %q, want %q", got, "2024")
	}
	if doc.Slug != "7" {
		t.Errorf("slug = %q, want %q", doc.Slug, "7")
	}

	doc, _, err = Document("a.md", []byte("---\nslug: [a, b]\n---\nbody"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Slug != "" {
		t.Errorf("list slug = %q, want empty", doc.Slug)
	}
}

func TestDocument(t *testing.T) {
	doc, res, err := Document("notes/a.md", []byte("---\nslug: alpha\n---\n[[b]]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Path != "notes/a.md" || doc.Slug != "alpha" || doc.Body != "[[b]]\n" {
		t.Errorf("doc = %+v", doc)
	}
	if res.Header != "---\nslug: alpha\n---\n" {
		t.Errorf("header = %q", res.Header)
	}
}
