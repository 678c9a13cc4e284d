// Package fetch retrieves web pages for the intake pipeline.
package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// FailureStatus is the synthetic status recorded when a page could not be
// retrieved at all (DNS failure, refused connection, timeout, TLS).
const FailureStatus = http.StatusInternalServerError

const defaultUserAgent = "Mozilla/5.0 (compatible; ansuz/1.0)"

// Result is the outcome of fetching a URL. Failures are data: every attempt
// produces a Result, and downstream stages decide what a failure status and
// an empty body mean for them.
type Result struct {
	URL        string
	StatusCode int
	Body       string
}

// Failed reports whether the fetch produced no usable response at all.
func (r Result) Failed() bool {
	return r.StatusCode == FailureStatus && r.Body == ""
}

// Client fetches pages with a bounded timeout and body size.
type Client struct {
	http      *http.Client
	maxBody   int64
	userAgent string
	logger    *slog.Logger
}

// New returns a Client. timeout bounds the whole request including the body
// read; maxBody caps how many response bytes are kept.
func New(timeout time.Duration, maxBody int64, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBody <= 0 {
		maxBody = 2 << 20
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		maxBody:   maxBody,
		userAgent: defaultUserAgent,
		logger:    logger,
	}
}

// Fetch GETs url. Network-level failure never propagates as an error: the
// sentinel result {FailureStatus, ""} comes back instead and the cause is
// logged. Non-2xx responses flow through with their real status and body.
func (c *Client) Fetch(ctx context.Context, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn("fetch: bad url", "url", url, "error", err)
		return Result{URL: url, StatusCode: FailureStatus}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("fetch: request failed", "url", url, "error", err)
		return Result{URL: url, StatusCode: FailureStatus}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		c.logger.Warn("fetch: body read failed", "url", url, "error", err)
		return Result{URL: url, StatusCode: FailureStatus}
	}
	return Result{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
}
