// Package classify decides whether a fetched page is a product for sale or
// an article to read.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/llm"
	"github.com/starford/ansuz/internal/models"
)

const systemPrompt = "You are a strict classifier. Decide whether a web page " +
	"offers a product for sale or is an article to read. Respond with exactly " +
	"one word: product or article."

// promptExcerptMax bounds how much page text goes into the model prompt.
const promptExcerptMax = 600

// Options configure a Classifier.
type Options struct {
	Endpoint  string // chat-completions URL
	Model     string
	APIKey    string // literal key from config
	KeyFile   string // key file path from config
	VaultRoot string // resolves vault-relative key files
	Fallback  models.Category

	// HTTPClient overrides the llm transport. Tests use it.
	HTTPClient *http.Client
}

// Classifier is the two-tier product/article decider: a remote model when a
// credential resolves, a deterministic heuristic always.
type Classifier struct {
	opts   Options
	creds  *credentialSource
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Classifier {
	if !opts.Fallback.Valid() {
		opts.Fallback = models.CategoryArticle
	}
	return &Classifier{
		opts: opts,
		creds: &credentialSource{
			keyFile:   opts.KeyFile,
			literal:   opts.APIKey,
			vaultRoot: opts.VaultRoot,
			logger:    logger,
		},
		logger: logger,
	}
}

// Classify never fails: when the remote tier is unavailable or answers
// badly, the heuristic decides. Without a resolvable credential no network
// activity happens at all.
func (c *Classifier) Classify(ctx context.Context, meta models.LinkMetadata) models.Category {
	if key, ok := c.creds.resolve(); ok {
		if cat, ok := c.remote(ctx, key, meta); ok {
			return cat
		}
	}
	return Heuristic(meta, c.opts.Fallback)
}

// remote asks the model and accepts only a bare one-word category.
func (c *Classifier) remote(ctx context.Context, key string, meta models.LinkMetadata) (models.Category, bool) {
	client := &llm.Client{
		BaseURL:    c.opts.Endpoint,
		APIKey:     key,
		Model:      c.opts.Model,
		HTTPClient: c.opts.HTTPClient,
	}
	answer, err := client.Chat(ctx, systemPrompt, userPrompt(meta))
	if err != nil {
		c.logger.Warn("classify: remote tier failed, using heuristic", "url", meta.URL, "error", err)
		return "", false
	}
	cat := models.Category(strings.ToLower(strings.TrimSpace(answer)))
	if !cat.Valid() {
		c.logger.Warn("classify: unusable model answer, using heuristic", "url", meta.URL, "answer", answer)
		return "", false
	}
	return cat, true
}

func userPrompt(meta models.LinkMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\nTitle: %s\n", meta.URL, meta.Title)
	if meta.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", meta.Description)
	}
	if meta.Excerpt != "" {
		excerpt := meta.Excerpt
		if utf8.RuneCountInString(excerpt) > promptExcerptMax {
			excerpt = string([]rune(excerpt)[:promptExcerptMax])
		}
		fmt.Fprintf(&b, "Page text: %s\n", excerpt)
	}
	return b.String()
}
