// Package notes parses clip note files back into their typed fields.
package notes

import (
	"bytes"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/clipnote"
	"github.com/starford/ansuz/internal/models"
)

// Clip holds the fields recovered from a clip note on disk.
type Clip struct {
	Title    string
	Source   string // the clipped URL
	Category models.Category
	Captured time.Time
	Origin   string // the daily note the link came from
	Body     string
}

// Parse splits YAML front matter from the Markdown body and lifts the clip
// fields out of it. Files without front matter, or whose front matter does
// not unmarshal, come back as body-only clips with the title taken from the
// first H1 heading.
func Parse(data []byte) *Clip {
	fm, body := splitFrontMatter(data)

	c := &Clip{
		Body:   body,
		Title:  deriveTitle(fm, body),
		Source: stringField(fm, "source"),
		Origin: stringField(fm, "origin"),
	}
	if cat := models.Category(stringField(fm, "category")); cat.Valid() {
		c.Category = cat
	}
	c.Captured = capturedField(fm)
	return c
}

// splitFrontMatter separates YAML front matter (between leading --- delimiters)
// from the Markdown body. If no front matter is found, or the block does not
// unmarshal, the entire content is body.
func splitFrontMatter(data []byte) (map[string]interface{}, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter, treat everything as body.
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}

	return fm, body
}

func stringField(fm map[string]interface{}, key string) string {
	if fm == nil {
		return ""
	}
	if s, ok := fm[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// capturedField reads the capture timestamp. The writer emits the minute
// layout; RFC 3339 is accepted for hand-edited notes, and YAML may hand us
// a time.Time directly when the scalar matches one of its own formats.
func capturedField(fm map[string]interface{}) time.Time {
	if fm == nil {
		return time.Time{}
	}
	switch v := fm["captured"].(type) {
	case string:
		if ts, err := time.ParseInLocation(clipnote.CapturedLayout, v, time.Local); err == nil {
			return ts
		}
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts
		}
	case time.Time:
		return v
	}
	return time.Time{}
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if t := stringField(fm, "title"); t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
