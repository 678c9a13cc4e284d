package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/ansuz/internal/classify"
	"github.com/starford/ansuz/internal/clipnote"
	"github.com/starford/ansuz/internal/fetch"
	"github.com/starford/ansuz/internal/ledger"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/pagemeta"
)

// Processor turns one URL into a durable capture.
type Processor interface {
	Process(ctx context.Context, url, origin string) (Capture, error)
}

// Capture describes a completed clip.
type Capture struct {
	URL      string          `json:"url"`
	NotePath string          `json:"note"`
	Title    string          `json:"title"`
	Category models.Category `json:"category"`
	Updated  bool            `json:"updated"`
}

// Pipeline is the real Processor: fetch, extract metadata, classify, write
// the clip note, append the ledger entry. Fetch and classification degrade
// to data; only local-resource failures come back as errors.
type Pipeline struct {
	fetcher    *fetch.Client
	classifier *classify.Classifier
	notes      *clipnote.Writer
	ledgers    *ledger.Book
	excerptMax int
	logger     *slog.Logger
	clock      func() time.Time
}

func NewPipeline(fetcher *fetch.Client, classifier *classify.Classifier, notes *clipnote.Writer, ledgers *ledger.Book, excerptMax int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		classifier: classifier,
		notes:      notes,
		ledgers:    ledgers,
		excerptMax: excerptMax,
		logger:     logger,
		clock:      time.Now,
	}
}

func (p *Pipeline) Process(ctx context.Context, url, origin string) (Capture, error) {
	res := p.fetcher.Fetch(ctx, url)
	if res.Failed() {
		p.logger.Warn("intake: fetch failed, clipping with URL only", "url", url)
	}
	meta := pagemeta.Extract(res, p.excerptMax)
	category := p.classifier.Classify(ctx, meta)

	now := p.clock()
	notePath, updated, err := p.notes.Write(meta, category, origin, now)
	if err != nil {
		return Capture{}, fmt.Errorf("intake: clip %s: %w", url, err)
	}
	if _, err := p.ledgers.Append(category, ledger.NewEntry(meta, notePath, category, now)); err != nil {
		return Capture{}, fmt.Errorf("intake: ledger %s: %w", url, err)
	}
	p.logger.Info("intake: captured", "url", url, "note", notePath, "category", category, "updated", updated)
	return Capture{URL: url, NotePath: notePath, Title: meta.Title, Category: category, Updated: updated}, nil
}
