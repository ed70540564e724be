package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetry(n int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  n,
		BaseDelay:    time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		JitterFactor: 0,
	}
}

func TestGetSuccessFirstAttempt(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Cache-Control"); got != "no-store" {
			t.Errorf("want Cache-Control no-store, got %q", got)
		}
		w.WriteHeader(200)
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	f := &Fetcher{Client: srv.Client(), Retry: SingleAttempt()}
	resp, err := f.Get(context.Background(), srv.URL, http.Header{"Cache-Control": {"no-store"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || string(body) != "[]" {
		t.Fatalf("want 200 [], got %d %q", resp.StatusCode, body)
	}
}

func TestGetSingleAttemptDoesNotRetry(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(503)
	}))
	defer srv.Close()

	f := &Fetcher{Client: srv.Client(), Retry: SingleAttempt()}
	_, err := f.Get(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("expected error on 503")
	}
	if !strings.Contains(err.Error(), "1 attempt(s)") {
		t.Fatalf("unexpected error message: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestGetRetriesOn503(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(503)
			return
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	f := &Fetcher{Client: srv.Client(), Retry: fastRetry(3)}
	resp, err := f.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}

func TestGetRetriesOn429WithRetryAfter(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(429)
			return
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	f := &Fetcher{Client: srv.Client(), Retry: fastRetry(3)}
	start := time.Now()
	resp, err := f.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Fatalf("Retry-After not honored, elapsed %v", elapsed)
	}
}

func TestGetReturnsClientErrorsUnretried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(404)
	}))
	defer srv.Close()

	f := &Fetcher{Client: srv.Client(), Retry: fastRetry(3)}
	resp, err := f.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 call (no retry on 404), got %d", got)
	}
}

func TestGetAttemptsExhausted(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	f := &Fetcher{Client: srv.Client(), Retry: fastRetry(3)}
	_, err := f.Get(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "gave up after 3 attempt(s)") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestGetContextCancellation(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &Fetcher{Client: srv.Client(), Retry: RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}}
	if _, err := f.Get(ctx, srv.URL, nil); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestWithAttemptsClampsToOne(t *testing.T) {
	t.Parallel()
	if got := SingleAttempt().WithAttempts(0).MaxAttempts; got != 1 {
		t.Fatalf("want 1, got %d", got)
	}
	if got := SingleAttempt().WithAttempts(4).MaxAttempts; got != 4 {
		t.Fatalf("want 4, got %d", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		val  string
		want time.Duration
	}{
		{"", 0},
		{"0", 0},
		{"5", 5 * time.Second},
		{"120", 120 * time.Second},
		{"invalid", 0},
		{"-1", 0},
	}
	for _, tt := range tests {
		got := parseRetryAfter(tt.val)
		if got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	t.Parallel()
	future := time.Now().Add(30 * time.Second).UTC().Format(time.RFC1123)
	got := parseRetryAfter(future)
	if got < 25*time.Second || got > 35*time.Second {
		t.Fatalf("parseRetryAfter(HTTP-date) = %v, want ~30s", got)
	}
}
