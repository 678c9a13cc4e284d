// Package intake watches source documents for new links and drives each one
// through the capture pipeline exactly once.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/starford/ansuz/internal/extract"
	"github.com/starford/ansuz/internal/storage"
)

// Event kinds delivered to the coordinator's callback.
const (
	EventClipCreated  = "clip.created"
	EventClipUpdated  = "clip.updated"
	EventClipFailed   = "clip.failed"
	EventScanFinished = "scan.finished"
)

// EventCallback receives user-visible intake events. detail is the clip
// note path for clip.created/updated, the URL for clip.failed, and the
// document path for scan.finished.
type EventCallback func(kind, detail string)

// Coordinator owns the per-document debounce, the processed-link state, and
// the one-at-a-time pipeline discipline.
type Coordinator struct {
	store    storage.Provider
	state    *StateStore
	proc     Processor
	debounce *debouncer
	logger   *slog.Logger
	cb       EventCallback

	ctx    context.Context
	cancel context.CancelFunc

	// pipelineMu serializes URL processing across all documents and all
	// trigger sources.
	pipelineMu sync.Mutex
}

func NewCoordinator(store storage.Provider, state *StateStore, proc Processor, debounceDelay time.Duration, logger *slog.Logger, cb EventCallback) *Coordinator {
	if cb == nil {
		cb = func(string, string) {}
	}
	if debounceDelay <= 0 {
		debounceDelay = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:    store,
		state:    state,
		proc:     proc,
		debounce: newDebouncer(debounceDelay),
		logger:   logger,
		cb:       cb,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// NotifyChange schedules a scan of doc once its change burst settles.
func (c *Coordinator) NotifyChange(doc string) {
	c.debounce.trigger(doc, func() {
		if err := c.Scan(c.ctx, doc); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("intake: scan failed", "doc", doc, "error", err)
		}
	})
}

// Close cancels pending debounce timers and in-flight scans.
func (c *Coordinator) Close() {
	c.debounce.stop()
	c.cancel()
}

// Scan captures every link in doc that has not been processed yet, one at a
// time in document order. A URL whose pipeline fails is reported, left out
// of the processed set so the next scan retries it, and does not stop the
// rest. Scanning an unchanged document is a no-op.
func (c *Coordinator) Scan(ctx context.Context, doc string) error {
	data, err := c.store.Read(doc)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("intake: document vanished before scan", "doc", doc)
		return nil
	}
	if err != nil {
		return fmt.Errorf("intake: read %s: %w", doc, err)
	}

	links := extract.Links(string(data))
	pending := make([]string, 0, len(links))
	for _, url := range links {
		if !c.state.Seen(doc, url) {
			pending = append(pending, url)
		}
	}
	if len(pending) == 0 {
		c.logger.Debug("intake: nothing new", "doc", doc, "links", len(links))
		return nil
	}
	c.logger.Info("intake: scanning", "doc", doc, "links", len(links), "new", len(pending))

	for _, url := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		// A concurrent scan of the same document may have won this URL.
		if c.state.Seen(doc, url) {
			continue
		}
		captured, err := c.process(ctx, url, doc)
		if err != nil {
			c.logger.Warn("intake: url failed, will retry next scan", "doc", doc, "url", url, "error", err)
			c.cb(EventClipFailed, url)
			continue
		}
		if err := c.state.Commit(doc, url); err != nil {
			// The capture itself is durable; only the accounting write failed.
			return err
		}
		c.emit(captured)
	}
	c.cb(EventScanFinished, doc)
	return nil
}

// ClipURL captures a single link that belongs to no source document, for
// the API and MCP surfaces. It shares the pipeline lock with scans but not
// the processed set; note and ledger dedup still apply.
func (c *Coordinator) ClipURL(ctx context.Context, url, origin string) (Capture, error) {
	captured, err := c.process(ctx, url, origin)
	if err != nil {
		c.cb(EventClipFailed, url)
		return Capture{}, err
	}
	c.emit(captured)
	return captured, nil
}

func (c *Coordinator) process(ctx context.Context, url, origin string) (Capture, error) {
	c.pipelineMu.Lock()
	defer c.pipelineMu.Unlock()
	return c.proc.Process(ctx, url, origin)
}

func (c *Coordinator) emit(captured Capture) {
	if captured.Updated {
		c.cb(EventClipUpdated, captured.NotePath)
		return
	}
	c.cb(EventClipCreated, captured.NotePath)
}
