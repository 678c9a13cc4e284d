// Package pagemeta extracts titles, descriptions, and text excerpts from
// fetched pages.
package pagemeta

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/starford/ansuz/internal/fetch"
	"github.com/starford/ansuz/internal/models"
)

const (
	// TitleMax and DescriptionMax are rune budgets, truncation mark included.
	TitleMax       = 120
	DescriptionMax = 500
	// DefaultExcerptMax applies when no excerpt budget is configured.
	DefaultExcerptMax = 2000

	truncationMark = "..."
)

// Extract parses a fetched page and returns bounded metadata. It never
// fails: pages that cannot be parsed (including sentinel fetch failures)
// degrade to URL-as-title with empty description and excerpt.
func Extract(res fetch.Result, excerptMax int) models.LinkMetadata {
	if excerptMax <= 0 {
		excerptMax = DefaultExcerptMax
	}
	meta := models.LinkMetadata{URL: res.URL, StatusCode: res.StatusCode}

	doc, err := html.Parse(strings.NewReader(res.Body))
	if err != nil {
		meta.Title = truncate(res.URL, TitleMax)
		return meta
	}

	head := collectHead(doc)
	title := head.bestTitle()
	if title == "" {
		title = res.URL
	}
	meta.Title = truncate(collapse(title), TitleMax)
	meta.Description = truncate(collapse(head.bestDescription()), DescriptionMax)
	meta.Excerpt = truncate(bodyText(doc), excerptMax)
	return meta
}

// headMeta holds the first occurrence of each title and description source.
type headMeta struct {
	ogTitle       string
	twitterTitle  string
	h1            string
	title         string
	description   string
	ogDescription string
}

// bestTitle returns the highest-priority non-empty title source:
// og:title > twitter:title > first h1 > title tag.
func (m headMeta) bestTitle() string {
	for _, t := range []string{m.ogTitle, m.twitterTitle, m.h1, m.title} {
		if s := strings.TrimSpace(t); s != "" {
			return s
		}
	}
	return ""
}

func (m headMeta) bestDescription() string {
	if s := strings.TrimSpace(m.description); s != "" {
		return s
	}
	return strings.TrimSpace(m.ogDescription)
}

func collectHead(doc *html.Node) headMeta {
	var m headMeta
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				var name, property, content string
				for _, a := range n.Attr {
					switch a.Key {
					case "name":
						name = strings.ToLower(a.Val)
					case "property":
						property = strings.ToLower(a.Val)
					case "content":
						content = a.Val
					}
				}
				if content != "" {
					switch {
					case property == "og:title" && m.ogTitle == "":
						m.ogTitle = content
					case name == "twitter:title" && m.twitterTitle == "":
						m.twitterTitle = content
					case name == "description" && m.description == "":
						m.description = content
					case property == "og:description" && m.ogDescription == "":
						m.ogDescription = content
					}
				}
			case "h1":
				if m.h1 == "" {
					m.h1 = nodeText(n)
				}
			case "title":
				if m.title == "" {
					m.title = nodeText(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return m
}

// nodeText returns the whitespace-collapsed text content of a node.
func nodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

// Subtrees whose text never belongs in an excerpt.
var skipText = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"head":     true,
}

// bodyText returns the page's visible text with whitespace runs collapsed
// to single spaces.
func bodyText(doc *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipText[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			for _, f := range strings.Fields(n.Data) {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(f)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most max runes, marking the cut. The mark counts
// against the budget.
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := max - utf8.RuneCountInString(truncationMark)
	if cut < 0 {
		cut = 0
	}
	return string(runes[:cut]) + truncationMark
}
