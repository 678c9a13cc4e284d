// Package slug derives vault-safe note names from page titles.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen bounds generated slugs. Everything surviving sanitization is
// ASCII, so bytes and runes agree.
const MaxLen = 80

var (
	nonSlug = regexp.MustCompile(`[^a-z0-9-]+`)
	dashes  = regexp.MustCompile(`-+`)
	// NFD → drop combining marks → NFC folds accented letters to ASCII.
	deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Make converts a title to a file-name slug: accent folding, lower-casing,
// separators to hyphens, everything outside [a-z0-9-] dropped, bounded to
// MaxLen. The result may be empty (emoji-only or CJK-only titles); use
// Fallback for a usable name in that case.
func Make(title string) string {
	s, _, err := transform.String(deaccent, title)
	if err != nil {
		s = title
	}
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = nonSlug.ReplaceAllString(s, "")
	s = dashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLen {
		s = s[:MaxLen]
		s = strings.TrimRight(s, "-")
	}
	return s
}

// Fallback returns a timestamped note name for titles that sanitize to
// nothing.
func Fallback(now time.Time) string {
	return fmt.Sprintf("clip-%s", now.Format("20060102-150405"))
}
