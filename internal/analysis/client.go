package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	analyzePath      = "/analyze-tweet"
	defaultTimeout   = 30 * time.Second
	defaultBackoff   = 500 * time.Millisecond
	maxRetries       = 1
	maxErrorBodySize = 4096
)

// Analyzer submits a validated post URL and returns the analysis.
type Analyzer interface {
	Analyze(ctx context.Context, postURL string) (*Result, error)
}

// Options configures a Client.
type Options struct {
	Timeout time.Duration // per attempt; 0 means 30s
	Retries int           // extra attempts on transport errors and 5xx; capped at 1
	Backoff time.Duration // wait before the retry; negative disables it
}

// Client talks to the remote analysis endpoint.
type Client struct {
	BaseURL string
	retries int
	backoff time.Duration
	client  *http.Client
}

// NewClient creates a client for the analysis API at baseURL.
func NewClient(baseURL string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	if retries > maxRetries {
		retries = maxRetries
	}
	backoff := opts.Backoff
	if backoff == 0 {
		backoff = defaultBackoff
	}
	if backoff < 0 {
		backoff = 0
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		retries: retries,
		backoff: backoff,
		client:  &http.Client{Timeout: timeout},
	}
}

// Analyze posts the URL to the analysis endpoint and decodes the result.
// A canceled context yields an error matching ErrCanceled.
func (c *Client) Analyze(ctx context.Context, postURL string) (*Result, error) {
	data, err := json.Marshal(map[string]string{"url": postURL})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying analysis request",
				"attempt", attempt+1,
				"error", lastErr)
			if err := sleep(ctx, c.backoff); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil, canceled(err)
				}
				return nil, &AnalysisError{Message: "request timed out", Err: err}
			}
		}

		result, err := c.do(ctx, data)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, data []byte) (*Result, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+analyzePath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, canceled(ctx.Err())
		}
		msg := genericNetworkError
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			msg = "request timed out"
		}
		return nil, &AnalysisError{Message: msg, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		msg := strings.TrimSpace(string(body))
		if readErr != nil || msg == "" {
			msg = genericNetworkError
		}
		slog.Debug("analysis endpoint returned error",
			"status", resp.StatusCode,
			"elapsed", time.Since(start))
		return nil, &AnalysisError{StatusCode: resp.StatusCode, Message: msg}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, canceled(ctx.Err())
		}
		return nil, &AnalysisError{StatusCode: resp.StatusCode, Message: genericNetworkError, Err: err}
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	if problems := Check(&result); len(problems) > 0 {
		return nil, &MalformedResponseError{Problems: problems}
	}

	slog.Debug("analysis received",
		"id", result.ID,
		"is_claim", result.IsClaim,
		"elapsed", time.Since(start))
	return &result, nil
}

func retryable(err error) bool {
	var aerr *AnalysisError
	if !errors.As(err, &aerr) {
		return false
	}
	return aerr.StatusCode == 0 || aerr.StatusCode >= 500
}

func canceled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
