// Package fetch reads evidence source pages and extracts their readable text.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// DefaultUserAgent identifies the reader to source sites.
const DefaultUserAgent = "Tweelyzer/1.0 (evidence reader)"

// minTextLength is the shortest extraction treated as real content.
const minTextLength = 100

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 5 << 20

// ErrNoContent means the page loaded but nothing readable was extracted.
var ErrNoContent = errors.New("no extractable content")

// StatusError reports an HTTP error status from the source site.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
}

// Page is the readable form of an evidence source.
type Page struct {
	URL    string
	Title  string
	Byline string
	Text   string
}

// Reader fetches pages over HTTP and runs readability extraction.
type Reader struct {
	client    *http.Client
	userAgent string
}

// NewReader creates a reader. Zero timeout means 15s; empty userAgent uses DefaultUserAgent.
func NewReader(timeout time.Duration, userAgent string) *Reader {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Reader{
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Read fetches rawURL and extracts its readable text.
func (r *Reader) Read(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid source URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", rawURL, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) < minTextLength {
		return nil, ErrNoContent
	}

	return &Page{
		URL:    rawURL,
		Title:  strings.TrimSpace(article.Title),
		Byline: strings.TrimSpace(article.Byline),
		Text:   text,
	}, nil
}

// Outcome is the result of reading one source in a batch.
type Outcome struct {
	URL     string
	Page    *Page
	Err     error
	Skipped bool
}

// ReadAll reads each URL in order. After an HTTP error status, remaining
// URLs on the same host are skipped.
func (r *Reader) ReadAll(ctx context.Context, urls []string) []Outcome {
	outcomes := make([]Outcome, 0, len(urls))
	failedHosts := make(map[string]struct{})

	for _, u := range urls {
		if ctx.Err() != nil {
			outcomes = append(outcomes, Outcome{URL: u, Err: ctx.Err(), Skipped: true})
			continue
		}

		host := hostOf(u)
		if _, failed := failedHosts[host]; failed && host != "" {
			outcomes = append(outcomes, Outcome{URL: u, Skipped: true, Err: fmt.Errorf("skipped after earlier failure on %s", host)})
			continue
		}

		page, err := r.Read(ctx, u)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && host != "" {
				failedHosts[host] = struct{}{}
				slog.Warn("source returned error status, skipping host", "url", u, "status", statusErr.Code, "host", host)
			} else {
				slog.Debug("source read failed", "url", u, "error", err)
			}
			outcomes = append(outcomes, Outcome{URL: u, Err: err})
			continue
		}
		outcomes = append(outcomes, Outcome{URL: u, Page: page})
	}

	return outcomes
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
