// Package extract finds web links in markdown documents.
package extract

import (
	"regexp"
	"sort"
)

var (
	// Captures the target between the parentheses of [label](https://target).
	markdownLink = regexp.MustCompile(`\[[^\]]*\]\((https?://[^)\s]+)\)`)
	// Bare tokens, terminated by whitespace or a delimiter character.
	bareLink = regexp.MustCompile("https?://[^\\s<>\"'`)\\]]+")
)

// Links returns every http(s) URL in text, deduplicated by exact string
// equality in order of first occurrence. Both markdown link targets and
// bare URL tokens are recognized. No normalization is applied: two URLs
// are the same link only if they are the same string.
func Links(text string) []string {
	type hit struct {
		pos int
		url string
	}
	var hits []hit
	for _, m := range markdownLink.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{pos: m[2], url: text[m[2]:m[3]]})
	}
	for _, m := range bareLink.FindAllStringIndex(text, -1) {
		hits = append(hits, hit{pos: m[0], url: text[m[0]:m[1]]})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]struct{}, len(hits))
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.url]; dup {
			continue
		}
		seen[h.url] = struct{}{}
		out = append(out, h.url)
	}
	return out
}
