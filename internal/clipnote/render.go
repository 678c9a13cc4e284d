// Package clipnote renders and places durable notes for captured links.
package clipnote

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/models"
)

// CapturedLayout is the human-readable timestamp in note front matter.
const CapturedLayout = "2006-01-02 15:04"

// frontMatter field order is the note contract; yaml.v3 preserves it.
type frontMatter struct {
	Title    string `yaml:"title"`
	Source   string `yaml:"source"`
	Captured string `yaml:"captured"`
	Category string `yaml:"category"`
	Origin   string `yaml:"origin"`
}

// Render produces the note body: front matter, H1 title, block-quoted
// description, excerpt, and a trailing original-link line.
func Render(meta models.LinkMetadata, category models.Category, origin string, now time.Time) ([]byte, error) {
	head, err := yaml.Marshal(frontMatter{
		Title:    meta.Title,
		Source:   meta.URL,
		Captured: now.Format(CapturedLayout),
		Category: string(category),
		Origin:   origin,
	})
	if err != nil {
		return nil, fmt.Errorf("clipnote: marshal front matter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n", meta.Title)
	if meta.Description != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(meta.Description, "\n") {
			fmt.Fprintf(&b, "> %s\n", line)
		}
	}
	if meta.Excerpt != "" {
		fmt.Fprintf(&b, "\n%s\n", meta.Excerpt)
	}
	fmt.Fprintf(&b, "\nOriginal link: %s\n", meta.URL)
	return b.Bytes(), nil
}
