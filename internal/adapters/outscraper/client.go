// Package outscraper loads raw Google Maps place rows from the Outscraper API.
package outscraper

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"qc_restaurants/internal/adapters/observability"
	"qc_restaurants/internal/domain"
)

const (
	maxAttempts   = 4
	maxPolls      = 30
	statusPending = "Pending"
)

var (
	ErrNotFound     = errors.New("outscraper: not found")
	ErrUnauthorized = errors.New("outscraper: unauthorized")
	ErrForbidden    = errors.New("outscraper: forbidden")
	ErrOutOfCredits = errors.New("outscraper: out of credits")
	ErrPending      = errors.New("outscraper: results not ready")
)

type Client struct {
	base  string
	hc    *http.Client
	key   string
	rl    *rate.Limiter
	query string
	limit int
	poll  time.Duration
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 60 * time.Second},
		key:   key,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
		limit: 500,
		poll:  2 * time.Second,
	}, nil
}

// WithPollInterval sets the wait between polls of a pending request.
func (c *Client) WithPollInterval(d time.Duration) *Client {
	c.poll = d
	return c
}

// ForQuery sets the search LoadRows runs, e.g. "restaurants, Quezon City".
func (c *Client) ForQuery(query string, limit int) *Client {
	c.query = query
	if limit > 0 {
		c.limit = limit
	}
	return c
}

// envelope is the search-v3 answer. A synchronous call that outlives the
// provider's wait window comes back 202 with Status "Pending" and a
// results_location to poll instead of Data.
type envelope struct {
	ID              string             `json:"id"`
	Status          string             `json:"status"`
	ResultsLocation string             `json:"results_location"`
	Data            [][]map[string]any `json:"data"`
}

// LoadRows runs the configured query and flattens every place into a row.
func (c *Client) LoadRows(ctx context.Context) (domain.Batch, error) {
	places, err := c.Search(ctx, c.query, c.limit)
	if err != nil {
		return domain.Batch{}, err
	}
	return toBatch(places), nil
}

// Search returns the raw place objects for one query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("outscraper: empty query")
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("async", "false")

	var env envelope
	if err := c.get(ctx, "maps/search-v3", c.base+"/maps/search-v3?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	for polls := 0; strings.EqualFold(env.Status, statusPending); polls++ {
		if env.ResultsLocation == "" || polls == maxPolls {
			return nil, fmt.Errorf("%w: request %s", ErrPending, env.ID)
		}
		if !sleepCtx(ctx, c.poll) {
			return nil, ctx.Err()
		}
		next := envelope{}
		if err := c.get(ctx, "requests", env.ResultsLocation, &next); err != nil {
			return nil, err
		}
		env = next
	}
	if strings.EqualFold(env.Status, "error") || strings.EqualFold(env.Status, "failed") {
		return nil, fmt.Errorf("outscraper: request %s ended with status %s", env.ID, env.Status)
	}

	var places []map[string]any
	for _, group := range env.Data {
		places = append(places, group...)
	}
	return places, nil
}

func toBatch(places []map[string]any) domain.Batch {
	seen := map[string]struct{}{}
	b := domain.Batch{Rows: make([]domain.RawRow, 0, len(places))}
	for _, p := range places {
		row := make(domain.RawRow, len(p))
		for k, v := range p {
			row[k] = domain.FromAny(v)
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				b.Columns = append(b.Columns, k)
			}
		}
		b.Rows = append(b.Rows, row)
	}
	sort.Strings(b.Columns)
	return b
}

// get performs a rate limited GET and decodes the body into out. 200 and
// 202 both carry an envelope. 429 and transient 5xx are retried, honoring
// Retry-After; 402 means the account ran out of credits and is final.
func (c *Client) get(ctx context.Context, endpoint, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-API-KEY", c.key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "qc-restaurants/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		observability.ObserveExternal("outscraper", endpoint, status, time.Since(start))

		var wait time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr, wait = err, backoff(i)

		case status == http.StatusOK || status == http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode %s: %w", endpoint, err)
			}
			return nil

		case retryable(status):
			wait = retryAfter(resp)
			if wait == 0 {
				wait = backoff(i)
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("outscraper: %s answered %d", endpoint, status)

		default:
			return statusError(resp)
		}

		if i == maxAttempts-1 || !sleepCtx(ctx, wait) {
			break
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return lastErr
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// statusError maps a final status to a sentinel, keeping the provider's message.
func statusError(resp *http.Response) error {
	defer resp.Body.Close()
	msg := providerMessage(io.LimitReader(resp.Body, 4096))

	var base error
	switch resp.StatusCode {
	case http.StatusPaymentRequired:
		base = ErrOutOfCredits
	case http.StatusUnauthorized:
		base = ErrUnauthorized
	case http.StatusForbidden:
		base = ErrForbidden
	case http.StatusNotFound:
		base = ErrNotFound
	default:
		base = fmt.Errorf("outscraper: bad status %d", resp.StatusCode)
	}
	if msg == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, msg)
}

// providerMessage pulls errorMessage/error/message out of a JSON error body,
// falling back to the raw text.
func providerMessage(r io.Reader) string {
	b, _ := io.ReadAll(r)
	var body map[string]any
	if json.Unmarshal(b, &body) == nil {
		for _, k := range []string{"errorMessage", "error", "message"} {
			if s, ok := body[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(b))
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
