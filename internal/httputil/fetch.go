// Package httputil fetches documents over HTTP with a bounded number of
// attempts and backoff between them.
package httputil

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryConfig controls how many attempts a fetch makes and how long it waits
// between them.
type RetryConfig struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64 // fraction of delay to randomize (0..1)
}

// SingleAttempt tries once. Board data has a static fallback, so a failed
// fetch is reported instead of retried.
func SingleAttempt() RetryConfig {
	return RetryConfig{
		MaxAttempts:  1,
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		JitterFactor: 0.25,
	}
}

// WithAttempts returns cfg with MaxAttempts set to n (at least 1).
func (cfg RetryConfig) WithAttempts(n int) RetryConfig {
	cfg.MaxAttempts = max(n, 1)
	return cfg
}

// Fetcher issues GET requests.
type Fetcher struct {
	Client *http.Client
	Retry  RetryConfig
}

// NewFetcher returns a Fetcher whose client gives up after timeout.
func NewFetcher(timeout time.Duration, retry RetryConfig) *Fetcher {
	return &Fetcher{
		Client: &http.Client{Timeout: timeout},
		Retry:  retry,
	}
}

// Get fetches url with the given extra headers.
//
// Retries on: network errors, HTTP 429, HTTP 5xx, while attempts remain.
// Any other status is returned as is, body intact; the caller decides
// whether it is usable.
func (f *Fetcher) Get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	attempts := max(f.Retry.MaxAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := client.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			resp.Body.Close()
		default:
			return resp, nil
		}

		if attempt == attempts-1 {
			break
		}
		delay := backoff(f.Retry, attempt, resp)
		slog.Warn("httputil: retrying fetch",
			"url", url,
			"attempt", attempt+1,
			"max", attempts,
			"delay", delay,
			"err", lastErr,
		)
		if err := sleepWithContext(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("fetch %s: gave up after %d attempt(s): %w", url, attempts, lastErr)
}

// backoff computes the sleep duration for the given attempt. A Retry-After
// header on resp takes precedence.
func backoff(cfg RetryConfig, attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if ra := parseRetryAfter(resp.Header.Get("Retry-After")); ra > 0 {
			return ra
		}
	}

	delay := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	jitter := delay * cfg.JitterFactor * (rand.Float64()*2 - 1) // ±jitter
	delay += jitter
	if delay < 0 {
		delay = float64(cfg.BaseDelay)
	}

	return time.Duration(delay)
}

// parseRetryAfter parses the Retry-After header value. It supports:
//   - seconds (e.g. "120")
//   - HTTP-date (e.g. "Thu, 01 Dec 2024 16:00:00 GMT")
//
// Returns 0 if the header is empty or unparseable.
func parseRetryAfter(val string) time.Duration {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}

	if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}

	if t, err := time.Parse(time.RFC1123, val); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}

// sleepWithContext sleeps for d but returns immediately if ctx is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
