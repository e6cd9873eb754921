package foamlinks

import "regexp"

var (
	// Bracket captures must hold a non-space character; "[[ ]]" stays text.
	wikilinkRe = regexp.MustCompile(`\[\[([^\]]*[^\]\s][^\]]*)\]\]`)
	embedRe    = regexp.MustCompile(`!\[\[([^\]]*[^\]\s][^\]]*)\]\]`)
	// The leading group rejects a word character or a repeated sigil before the
	// tag, so "a#b", "##b" and "user@host" do not match.
	tagRe     = regexp.MustCompile(`(?m)(?:^|[^#\w])#([a-zA-Z0-9][\w-]*)`)
	mentionRe = regexp.MustCompile(`(?m)(?:^|[^@\w])@([a-zA-Z0-9][\w-]*)`)
)

// Kind classifies a reference.
type Kind string

const (
	KindWikilink Kind = "wikilink"
	KindEmbed    Kind = "embed"
	KindTag      Kind = "tag"
	KindMention  Kind = "mention"
)

// Scan holds the raw captures of one document body.
type Scan struct {
	Wikilinks []string
	Embeds    []string
	Tags      []string
	Mentions  []string

	tagSet     map[string]struct{}
	mentionSet map[string]struct{}
	embedOnly  map[string]struct{}
}

// ScanBody extracts every wikilink, embed, tag and mention capture from body.
func ScanBody(body string) Scan {
	s := Scan{
		Wikilinks: captures(wikilinkRe, body),
		Embeds:    captures(embedRe, body),
		Tags:      captures(tagRe, body),
		Mentions:  captures(mentionRe, body),
	}
	s.tagSet = toSet(s.Tags)
	s.mentionSet = toSet(s.Mentions)
	s.embedOnly = embedOnly(s.Wikilinks, s.Embeds)
	return s
}

// All returns the deduplicated union of all captures in scan order:
// wikilinks, embeds, tags, then mentions.
func (s Scan) All() []string {
	total := len(s.Wikilinks) + len(s.Embeds) + len(s.Tags) + len(s.Mentions)
	seen := make(map[string]struct{}, total)
	out := make([]string, 0, total)
	for _, group := range [][]string{s.Wikilinks, s.Embeds, s.Tags, s.Mentions} {
		for _, raw := range group {
			if _, ok := seen[raw]; ok {
				continue
			}
			seen[raw] = struct{}{}
			out = append(out, raw)
		}
	}
	return out
}

// Empty reports whether the body contained no reference syntax at all.
func (s Scan) Empty() bool {
	return len(s.Wikilinks) == 0 && len(s.Embeds) == 0 && len(s.Tags) == 0 && len(s.Mentions) == 0
}

// IsTag reports whether text was captured by the tag pattern.
func (s Scan) IsTag(text string) bool {
	_, ok := s.tagSet[text]
	return ok
}

// IsMention reports whether text was captured by the mention pattern.
func (s Scan) IsMention(text string) bool {
	_, ok := s.mentionSet[text]
	return ok
}

// IsEmbed reports whether every bracket occurrence of text was an embed.
func (s Scan) IsEmbed(text string) bool {
	_, ok := s.embedOnly[text]
	return ok
}

// embedOnly returns the captures whose every [[...]] occurrence is prefixed
// with "!". The wikilink pattern also matches inside embeds.
func embedOnly(wikilinks, embeds []string) map[string]struct{} {
	counts := make(map[string]int, len(embeds))
	for _, e := range embeds {
		counts[e]++
	}
	for _, w := range wikilinks {
		if _, ok := counts[w]; ok {
			counts[w]--
		}
	}
	out := make(map[string]struct{}, len(counts))
	for k, n := range counts {
		if n >= 0 {
			out[k] = struct{}{}
		}
	}
	return out
}

func captures(re *regexp.Regexp, body string) []string {
	matches := re.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
