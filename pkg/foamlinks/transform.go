package foamlinks

// Result is the outcome of transforming one document.
type Result struct {
	// Body is the rewritten document body.
	Body string
	// References is the number of distinct references processed.
	References  int
	Definitions []Definition
	// Unresolved lists the literal targets of wikilinks that matched no document.
	Unresolved []string
}

// Changed reports whether the transform altered the body.
func (r Result) Changed() bool {
	return r.References > 0
}

// Transform rewrites the wikilinks, embeds, tags and mentions of doc into
// reference-style Markdown links resolved against corpus.
//
// A body without any reference syntax is returned unchanged. Transform never
// fails: unresolved wikilinks degrade to placeholder definitions.
func Transform(doc Document, corpus *Corpus, cfg Config) Result {
	scan := ScanBody(doc.Body)
	if scan.Empty() {
		return Result{Body: doc.Body}
	}
	all := scan.All()

	r := newResolver(doc, corpus, cfg, scan)
	defs := make([]Definition, 0, len(all))
	paths := make(map[string]string)
	var unresolved []string
	for _, raw := range all {
		ref := r.classify(raw)
		def := r.define(ref)
		defs = append(defs, def)

		if ref.Kind != KindWikilink && ref.Kind != KindEmbed {
			continue
		}
		if def.Resolved {
			paths[ref.Target] = def.Destination
		} else {
			unresolved = append(unresolved, def.Destination)
		}
	}

	body := rewriteBody(doc.Body, paths)
	return Result{
		Body:        appendDefinitions(body, defs),
		References:  len(all),
		Definitions: defs,
		Unresolved:  unresolved,
	}
}

// TransformBody is a convenience wrapper for callers that only need the text.
func TransformBody(doc Document, corpus *Corpus, cfg Config) string {
	return Transform(doc, corpus, cfg).Body
}

// Resolve returns the definition a plain wikilink [[target]] in source would
// receive. The target may carry an alias after a pipe.
func Resolve(source Document, corpus *Corpus, cfg Config, target string) Definition {
	r := newResolver(source, corpus, cfg, Scan{})
	return r.define(r.classify(target))
}
