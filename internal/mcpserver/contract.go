package mcpserver

// ClipFormatContract describes the canonical Markdown clip note format that
// LLM consumers can expect when reading clips.
const ClipFormatContract = `# Ansuz Clip Note Format

Every clip note produced by the pipeline follows this structure.

## Structure

` + "```" + `markdown
---
title: Page title                   # Extracted from the page, max 120 chars
source: https://example.org/page    # The exact clipped URL
captured: 2026-08-21 14:03          # Local capture time, minute precision
category: article                   # product or article
origin: Daily/2026-08-21.md         # Note or surface the link came from
---

# Page title

> Meta description if the page had one, block-quoted.

Excerpt of the page body text, whitespace-collapsed.

Original link: https://example.org/page
` + "```" + `

## Rules

1. **YAML frontmatter comes first.** The ` + "`" + `---` + "`" + ` fences open the file
   with no leading blank lines.
2. **` + "`" + `source` + "`" + ` holds the exact URL as clipped.** No normalization is
   applied; the same string appears in the ledger and the trailing link line.
3. **` + "`" + `category` + "`" + ` is one of ` + "`" + `product` + "`" + ` or ` + "`" + `article` + "`" + `.**
   Products land in the product ledger with status ` + "`" + `wishlist` + "`" + `, articles
   in the article ledger with status ` + "`" + `to-read` + "`" + `.
4. **Re-clipping the same URL updates the existing note in place** rather
   than creating a numbered sibling. Other clips with colliding titles get
   ` + "`" + `-1` + "`" + ` through ` + "`" + `-99` + "`" + ` suffixes.
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.

## Ledgers

Each clip also appends one entry to a category ledger (JSON):

` + "```" + `json
{
  "entries": [
    {
      "title": "Page title",
      "url": "https://example.org/page",
      "clippedNote": "Clips/page-title.md",
      "captured": "2026-08-21T14:03:00+02:00",
      "status": "to-read"
    }
  ]
}
` + "```" + `

The first capture of a URL wins; later captures refresh the note but never
rewrite the ledger entry.
`
