package pagemeta

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/fetch"
)

func page(body string) fetch.Result {
	return fetch.Result{URL: "https://example.com/page", StatusCode: 200, Body: body}
}

func TestExtract_TitlePriority(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			"og wins over title tag",
			`<html><head><meta property="og:title" content="OG Wins"><title>Tag Title</title></head></html>`,
			"OG Wins",
		},
		{
			"twitter beats h1",
			`<html><head><meta name="twitter:title" content="Tweet Title"></head><body><h1>Heading</h1></body></html>`,
			"Tweet Title",
		},
		{
			"h1 beats title tag",
			`<html><head><title>Tag Title</title></head><body><h1>Big <em>Heading</em></h1></body></html>`,
			"Big Heading",
		},
		{
			"title tag as last resort",
			`<html><head><title>Only Title</title></head><body><p>text</p></body></html>`,
			"Only Title",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract(page(tc.body), 0)
			if got.Title != tc.want {
				t.Errorf("title = %q, want %q", got.Title, tc.want)
			}
		})
	}
}

func TestExtract_URLFallbackTitle(t *testing.T) {
	got := Extract(page("<html><body><p>no title anywhere</p></body></html>"), 0)
	if got.Title != "https://example.com/page" {
		t.Errorf("title = %q, want the URL", got.Title)
	}
}

func TestExtract_EmptyBody(t *testing.T) {
	got := Extract(fetch.Result{URL: "https://example.com/x", StatusCode: 500}, 0)
	if got.Title != "https://example.com/x" {
		t.Errorf("title = %q, want the URL", got.Title)
	}
	if got.Description != "" || got.Excerpt != "" {
		t.Errorf("description = %q, excerpt = %q, want empty", got.Description, got.Excerpt)
	}
	if got.StatusCode != 500 {
		t.Errorf("status = %d, want 500", got.StatusCode)
	}
}

func TestExtract_TitleTruncated(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := Extract(page("<html><head><title>"+long+"</title></head></html>"), 0)
	if n := utf8.RuneCountInString(got.Title); n != TitleMax {
		t.Errorf("title runes = %d, want %d", n, TitleMax)
	}
	if !strings.HasSuffix(got.Title, "...") {
		t.Errorf("title %q missing truncation mark", got.Title)
	}
}

func TestExtract_Description(t *testing.T) {
	body := `<html><head><meta name="description" content="Meta desc"><meta property="og:description" content="OG desc"></head></html>`
	got := Extract(page(body), 0)
	if got.Description != "Meta desc" {
		t.Errorf("description = %q, want %q", got.Description, "Meta desc")
	}

	body = `<html><head><meta property="og:description" content="OG only"></head></html>`
	got = Extract(page(body), 0)
	if got.Description != "OG only" {
		t.Errorf("description = %q, want %q", got.Description, "OG only")
	}
}

func TestExtract_ExcerptSkipsScriptAndStyle(t *testing.T) {
	body := `<html><head><style>p{color:red}</style></head><body>
		<p>visible   one</p>
		<script>var hidden = 1;</script>
		<p>visible
		two</p>
	</body></html>`
	got := Extract(page(body), 0)
	if got.Excerpt != "visible one visible two" {
		t.Errorf("excerpt = %q, want %q", got.Excerpt, "visible one visible two")
	}
}

func TestExtract_ExcerptBudget(t *testing.T) {
	body := "<html><body><p>" + strings.Repeat("word ", 2000) + "</p></body></html>"
	got := Extract(page(body), 100)
	if n := utf8.RuneCountInString(got.Excerpt); n != 100 {
		t.Errorf("excerpt runes = %d, want 100", n)
	}
	if !strings.HasSuffix(got.Excerpt, "...") {
		t.Errorf("excerpt %q missing truncation mark", got.Excerpt)
	}
}

func TestExtract_UnicodeTruncation(t *testing.T) {
	long := strings.Repeat("日", 200)
	got := Extract(page("<html><head><title>"+long+"</title></head></html>"), 0)
	if n := utf8.RuneCountInString(got.Title); n != TitleMax {
		t.Errorf("title runes = %d, want %d", n, TitleMax)
	}
	if !utf8.ValidString(got.Title) {
		t.Error("truncation produced invalid UTF-8")
	}
}
