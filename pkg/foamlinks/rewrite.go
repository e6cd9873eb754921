package foamlinks

import (
	"regexp"
	"strings"
)

const (
	beginMarker = `[//begin]: # "Autogenerated link references for markdown compatibility"`
	endMarker   = `[//end]: # "Autogenerated link references"`
)

// rewriteBody applies the wikilink, embed, tag and mention passes in order.
// paths maps resolved wikilink targets to their relative path.
func rewriteBody(body string, paths map[string]string) string {
	body = replaceWikilinks(body, paths)
	body = replaceEmbeds(body)
	body = replaceSigil(body, tagRe, '#')
	body = replaceSigil(body, mentionRe, '@')
	return body
}

// replaceWikilinks rewrites [[...]] occurrences that are not embeds.
func replaceWikilinks(body string, paths map[string]string) string {
	idx := wikilinkRe.FindAllStringSubmatchIndex(body, -1)
	if len(idx) == 0 {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	last := 0
	for _, m := range idx {
		start, end := m[0], m[1]
		if start > 0 && body[start-1] == '!' {
			continue
		}
		b.WriteString(body[last:start])
		b.WriteString(wikilinkToken(body[m[2]:m[3]], paths))
		last = end
	}
	b.WriteString(body[last:])
	return b.String()
}

func wikilinkToken(inner string, paths map[string]string) string {
	text := strings.TrimSpace(inner)
	t, display, aliased := strings.Cut(text, "|")
	t = strings.TrimSpace(t)
	if !aliased || t == "" {
		return "[" + text + "]"
	}
	display = strings.TrimSpace(display)
	dest := t
	if p, ok := paths[t]; ok {
		dest = p
	}
	return "[" + display + "](" + dest + ")"
}

func replaceEmbeds(body string) string {
	return embedRe.ReplaceAllStringFunc(body, func(match string) string {
		inner := strings.TrimSpace(match[3 : len(match)-2])
		t, _, aliased := strings.Cut(inner, "|")
		if aliased {
			t = strings.TrimSpace(t)
		}
		if t == "" {
			t = inner
		}
		return "![" + t + "]"
	})
}

// replaceSigil rewrites tags or mentions, keeping the character matched
// before the sigil.
func replaceSigil(body string, re *regexp.Regexp, sigil byte) string {
	return re.ReplaceAllStringFunc(body, func(match string) string {
		prefix := ""
		name := match[1:]
		if match[0] != sigil {
			// The prefix is a single non-word rune that may span several bytes.
			i := strings.IndexByte(match, sigil)
			prefix = match[:i]
			name = match[i+1:]
		}
		return prefix + "[" + string(sigil) + name + "]"
	})
}

// appendDefinitions appends the autogenerated definition block to body.
func appendDefinitions(body string, defs []Definition) string {
	lines := make([]string, 0, len(defs))
	for _, d := range defs {
		lines = append(lines, d.String())
	}
	var b strings.Builder
	b.Grow(len(body) + len(beginMarker) + len(endMarker) + 64*len(defs))
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(beginMarker)
	b.WriteString("\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	b.WriteString(endMarker)
	return b.String()
}
