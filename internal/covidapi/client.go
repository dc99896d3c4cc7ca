// Covidcache - UK COVID-19 Statistics Sync and Caching Service
// Copyright 2026 A. Whitfield (ajwhitfield)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ajwhitfield/covidcache

// Package covidapi is the client for the UK coronavirus dashboard data
// API: paged GET queries with filter/structure parameters, conditional
// fetching via If-Modified-Since, and a captured Last-Modified watermark.
//
// Callers can distinguish four outcomes: fresh rows with a watermark,
// ErrNotModified (304), *HTTPError (non-2xx) and transport errors
// (wrapped from the underlying http.Client).
package covidapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/ajwhitfield/covidcache/internal/logging"
	"github.com/ajwhitfield/covidcache/internal/metrics"
)

// Options configures the client.
type Options struct {
	// BaseURL is the dashboard data endpoint.
	BaseURL string

	// Timeout bounds each request; defaults to 30s.
	Timeout time.Duration

	// PageSize is the assumed page size when a response envelope omits
	// maxPageLimit; defaults to 1000.
	PageSize int

	// RateLimit and RateBurst configure the client-side limiter;
	// defaults are 8 req/s with a burst of 4.
	RateLimit float64
	RateBurst int
}

// Client queries the dashboard API. Safe for concurrent use.
type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[*queryResult]
}

// queryResult is one complete (all pages) query result.
type queryResult struct {
	rows         []json.RawMessage
	lastModified time.Time
}

// New creates a Client for the given dashboard endpoint.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 8
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 4
	}

	settings := gobreaker.Settings{
		Name:        "covidapi",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Upstream circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// 304 and empty bodies are healthy upstream behaviour.
			return err == nil || errors.Is(err, ErrNotModified) || errors.Is(err, ErrEmptyBody)
		},
	}

	return &Client{
		baseURL:  opts.BaseURL,
		pageSize: opts.PageSize,
		http:     &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
		breaker:  gobreaker.NewCircuitBreaker[*queryResult](settings),
	}
}

// Query runs a paged query and returns all rows plus the response
// Last-Modified watermark (zero when the upstream omits the header).
//
// Returns ErrNotModified for a 304, ErrEmptyBody for a 2xx with no rows,
// *HTTPError for other non-2xx statuses, and wrapped transport errors
// otherwise.
func (c *Client) Query(ctx context.Context, req Request) ([]json.RawMessage, time.Time, error) {
	result, err := c.breaker.Execute(func() (*queryResult, error) {
		return c.queryAllPages(ctx, req)
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	return result.rows, result.lastModified, nil
}

// queryAllPages walks the pagination until a short page. The page size
// is the server's: the envelope's maxPageLimit, not the configured
// default, decides whether a page is full and more may follow.
func (c *Client) queryAllPages(ctx context.Context, req Request) (*queryResult, error) {
	var (
		rows         []json.RawMessage
		lastModified time.Time
	)

	for pageNum := 1; ; pageNum++ {
		pg, lm, err := c.fetchPage(ctx, req, pageNum)
		if err != nil {
			return nil, err
		}
		if pageNum == 1 {
			lastModified = lm
		}
		rows = append(rows, pg.Data...)
		limit := pg.MaxPageLimit
		if limit <= 0 {
			limit = c.pageSize
		}
		if len(pg.Data) < limit {
			break
		}
	}

	if len(rows) == 0 {
		return nil, ErrEmptyBody
	}
	return &queryResult{rows: rows, lastModified: lastModified}, nil
}

// fetchPage issues one GET and decodes the page envelope.
func (c *Client) fetchPage(ctx context.Context, req Request, pageNum int) (*page, time.Time, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, time.Time{}, fmt.Errorf("rate limiter wait: %w", err)
	}

	u, err := c.buildURL(req, pageNum)
	if err != nil {
		return nil, time.Time{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if !req.ModifiedSince.IsZero() {
		httpReq.Header.Set("If-Modified-Since", req.ModifiedSince.UTC().Format(http.TimeFormat))
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("transport_error").Inc()
		return nil, time.Time{}, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		metrics.UpstreamRequests.WithLabelValues("not_modified").Inc()
		return nil, time.Time{}, ErrNotModified
	case resp.StatusCode == http.StatusNoContent:
		// The dashboard answers 204 for filters matching nothing.
		metrics.UpstreamRequests.WithLabelValues("success").Inc()
		return &page{}, time.Time{}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.UpstreamRequests.WithLabelValues("http_error").Inc()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse
		return nil, time.Time{}, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("transport_error").Inc()
		return nil, time.Time{}, fmt.Errorf("read upstream body: %w", err)
	}

	var pg page
	if err := json.Unmarshal(body, &pg); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode upstream page: %w", err)
	}

	metrics.UpstreamRequests.WithLabelValues("success").Inc()
	return &pg, parseLastModified(resp.Header.Get("Last-Modified")), nil
}

// buildURL assembles the query URL for one page.
func (c *Client) buildURL(req Request, pageNum int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("filters", req.Filters.String())
	q.Set("structure", req.Structure)
	q.Set("format", "json")
	q.Set("page", strconv.Itoa(pageNum))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseLastModified parses the Last-Modified header; zero when absent or
// malformed (the synchroniser then falls back to its own sync time).
func parseLastModified(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := http.ParseTime(v)
	if err != nil {
		logging.Debug().Str("value", v).Msg("Unparseable Last-Modified header")
		return time.Time{}
	}
	return t
}

// Reachable reports whether the host behind the base URL accepts TCP
// connections. Used as the default connectivity probe before a sync run.
func (c *Client) Reachable(ctx context.Context) bool {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host = net.JoinHostPort(u.Hostname(), "443")
		default:
			host = net.JoinHostPort(u.Hostname(), "80")
		}
	}
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
