package foamlinks

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var h1Re = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)

// Reference is one distinct reference found in a document body.
type Reference struct {
	// Raw is the text captured by the scanner.
	Raw  string
	Kind Kind
	// Key is Raw with surrounding whitespace removed, alias included.
	Key string
	// Target is the part of Key before the first pipe.
	Target string
	// Alias is the part of Key after the first pipe, if any.
	Alias string
}

// Definition is one reference-link definition line.
type Definition struct {
	Label       string
	Destination string
	Title       string
	Kind        Kind
	// Resolved is false only for wikilinks that matched no corpus document.
	Resolved bool
	// Document is the corpus path of the resolved document for wikilinks and
	// embeds, empty otherwise.
	Document string
}

// String formats d as a Markdown link reference definition.
func (d Definition) String() string {
	title := strings.ReplaceAll(d.Title, `"`, `\"`)
	dest := d.Destination
	if strings.Contains(dest, " ") {
		dest = "<" + dest + ">"
	}
	return "[" + d.Label + "]: " + dest + ` "` + title + `"`
}

// target is a resolved wikilink destination.
type target struct {
	doc   string
	path  string
	title string
}

// resolver resolves references for a single source document. Results for each
// target document are memoized so repeated references agree.
type resolver struct {
	source Document
	corpus *Corpus
	cfg    Config
	scan   Scan
	cache  map[string]target
}

func newResolver(source Document, corpus *Corpus, cfg Config, scan Scan) *resolver {
	return &resolver{
		source: source,
		corpus: corpus,
		cfg:    cfg,
		scan:   scan,
		cache:  make(map[string]target),
	}
}

// classify turns a raw capture into a Reference.
func (r *resolver) classify(raw string) Reference {
	ref := Reference{Raw: raw, Key: strings.TrimSpace(raw)}
	ref.Target = ref.Key
	if i := strings.Index(ref.Key, "|"); i >= 0 {
		ref.Target = strings.TrimSpace(ref.Key[:i])
		ref.Alias = strings.TrimSpace(ref.Key[i+1:])
	}
	switch {
	case r.scan.IsTag(ref.Key):
		ref.Kind = KindTag
	case r.scan.IsMention(ref.Key):
		ref.Kind = KindMention
	case r.scan.IsEmbed(raw):
		ref.Kind = KindEmbed
	default:
		ref.Kind = KindWikilink
	}
	return ref
}

// define computes the definition for ref.
func (r *resolver) define(ref Reference) Definition {
	switch ref.Kind {
	case KindTag:
		dest := "tags/" + ref.Key
		if r.cfg.TagBaseURL != "" {
			dest = r.cfg.TagBaseURL + ref.Key
		}
		return Definition{Label: "#" + ref.Key, Destination: dest, Title: "Tag: " + ref.Key, Kind: KindTag, Resolved: true}
	case KindMention:
		dest := "mentions/" + ref.Key
		if r.cfg.MentionBaseURL != "" {
			dest = r.cfg.MentionBaseURL + ref.Key
		}
		return Definition{Label: "@" + ref.Key, Destination: dest, Title: "Mention: " + ref.Key, Kind: KindMention, Resolved: true}
	}

	if t, ok := r.lookup(ref.Target); ok {
		return Definition{Label: ref.Key, Destination: t.path, Title: t.title, Kind: ref.Kind, Resolved: true, Document: t.doc}
	}
	literal := ref.Target
	if literal == "" {
		literal = ref.Key
	}
	if literal == "" {
		literal = ref.Raw
	}
	return Definition{Label: literal, Destination: literal, Title: literal, Kind: ref.Kind}
}

// lookup resolves wikilink target text against the corpus.
func (r *resolver) lookup(text string) (target, bool) {
	doc, ok := r.corpus.Find(text)
	if !ok {
		return target{}, false
	}
	if t, ok := r.cache[doc.Path]; ok {
		return t, true
	}
	t := target{
		doc:   doc.Path,
		path:  relativePath(r.source.Path, doc.Path),
		title: Title(doc),
	}
	r.cache[doc.Path] = t
	return t, true
}

// relativePath returns the slash path from the directory of source to dest,
// without a trailing text extension.
func relativePath(source, dest string) string {
	dir := path.Dir(source)
	rel, err := filepath.Rel(filepath.FromSlash(dir), filepath.FromSlash(dest))
	if err != nil {
		rel = dest
	}
	return StripTextExt(filepath.ToSlash(rel))
}

// StripTextExt removes a trailing recognized text extension from p.
func StripTextExt(p string) string {
	if IsTextPath(p) {
		return p[:len(p)-len(path.Ext(p))]
	}
	return p
}

// Title returns the display title of doc: the front-matter title, else the
// first level-1 heading, else a title derived from the file name.
func Title(doc Document) string {
	if t := frontMatterTitle(doc.FrontMatter); t != "" {
		return t
	}
	if m := h1Re.FindStringSubmatch(doc.Body); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			return t
		}
	}
	return titleFromName(doc.Path)
}

func frontMatterTitle(fm map[string]any) string {
	v, ok := fm["title"]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func titleFromName(p string) string {
	name := baseName(p)
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		if name == "" {
			return p
		}
		return name
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(name[size:])
}
