// Package source loads the board's ticket records: a primary JSON array
// (fetched over HTTP or read from the site root) with a secondary copy
// embedded in the host document or kept in a static fallback file.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/jsonc"

	"ficboard/internal/httputil"
	"ficboard/internal/safepath"
	"ficboard/internal/surface"
	"ficboard/internal/ticket"
)

// ErrNoData is returned when neither the primary nor the secondary source
// yields a usable record list.
var ErrNoData = errors.New("no ticket data available")

// maxBody caps how much of a primary response is read.
const maxBody = 16 << 20

// Origin names where a record list came from.
type Origin string

const (
	OriginPrimary  Origin = "primary"
	OriginEmbedded Origin = "embedded"
	OriginFallback Origin = "fallback"
	OriginNone     Origin = "none"
)

// Options configures a Loader.
type Options struct {
	// DataURL is an http(s) URL or a path relative to SiteRoot.
	DataURL      string
	SiteRoot     string
	FallbackPath string
	Timeout      time.Duration
	Attempts     int
}

// Result is one successful load.
type Result struct {
	Tickets  []ticket.Ticket
	Origin   Origin
	LoadedAt time.Time
}

// Loader resolves the record list.
type Loader struct {
	opts    Options
	host    *surface.Host
	fetcher *httputil.Fetcher
	now     func() time.Time
}

// NewLoader returns a Loader. host supplies the embedded data block and may
// be nil.
func NewLoader(opts Options, host *surface.Host) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Loader{
		opts:    opts,
		host:    host,
		fetcher: httputil.NewFetcher(opts.Timeout, httputil.SingleAttempt().WithAttempts(opts.Attempts)),
		now:     time.Now,
	}
}

// Load returns the primary record list, or the secondary one when the
// primary is unavailable or malformed. When neither is usable the error
// wraps ErrNoData and the result is empty with OriginNone.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	tickets, err := l.primary(ctx)
	if err == nil {
		return l.result(tickets, OriginPrimary), nil
	}
	slog.Warn("source: primary data unavailable, using fallback", "url", l.opts.DataURL, "err", err)

	tickets, origin, secErr := l.secondary()
	if secErr == nil {
		return l.result(tickets, origin), nil
	}
	return l.result(nil, OriginNone), fmt.Errorf("%w: primary: %v; fallback: %v", ErrNoData, err, secErr)
}

func (l *Loader) result(tickets []ticket.Ticket, origin Origin) *Result {
	return &Result{Tickets: tickets, Origin: origin, LoadedAt: l.now()}
}

func (l *Loader) primary(ctx context.Context) ([]ticket.Ticket, error) {
	ref := strings.TrimSpace(l.opts.DataURL)
	if ref == "" {
		return nil, fmt.Errorf("no data url configured")
	}
	if isRemote(ref) {
		return l.fetch(ctx, ref)
	}

	path, err := safepath.Join(l.opts.SiteRoot, ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ticket.Decode(data)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]ticket.Ticket, error) {
	header := http.Header{}
	header.Set("Cache-Control", "no-store")
	header.Set("Accept", "application/json")

	resp, err := l.fetcher.Get(ctx, url, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return ticket.Decode(data)
}

// secondary tries the host document's embedded block, then the fallback
// file. Both tolerate comments and trailing commas.
func (l *Loader) secondary() ([]ticket.Ticket, Origin, error) {
	var errs []error
	if l.host != nil {
		tickets, err := l.embedded()
		if err == nil {
			return tickets, OriginEmbedded, nil
		}
		errs = append(errs, err)
	}
	if l.opts.FallbackPath != "" {
		data, err := os.ReadFile(l.opts.FallbackPath)
		if err == nil {
			var tickets []ticket.Ticket
			if tickets, err = decodeLenient(data); err == nil {
				return tickets, OriginFallback, nil
			}
		}
		errs = append(errs, fmt.Errorf("fallback %s: %w", l.opts.FallbackPath, err))
	}
	if len(errs) == 0 {
		return nil, OriginNone, fmt.Errorf("no secondary source configured")
	}
	return nil, OriginNone, errors.Join(errs...)
}

func (l *Loader) embedded() ([]ticket.Ticket, error) {
	doc, err := l.host.Document()
	if err != nil {
		return nil, err
	}
	data, ok := doc.EmbeddedData()
	if !ok || len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("host document has no #%s block", surface.DataScriptID)
	}
	tickets, err := decodeLenient(data)
	if err != nil {
		return nil, fmt.Errorf("embedded data: %w", err)
	}
	return tickets, nil
}

func decodeLenient(data []byte) ([]ticket.Ticket, error) {
	return ticket.Decode(jsonc.ToJSON(data))
}

func isRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
