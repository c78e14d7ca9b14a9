// Package fetcher issues paced, bounded JSON GET requests against the
// external knowledge-base APIs.
package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures the JSON fetch client.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	PaceDelay    time.Duration
	RateLimiters map[string]*rate.Limiter
}

// Client performs rate-limited JSON GET requests. Every call blocks until a
// response arrives or the bounded wait elapses, then sleeps a fixed pacing
// interval as rate-limit courtesy toward the third-party APIs.
type Client struct {
	http     *http.Client
	opts     Options
	limiters map[string]*rate.Limiter
	fallback *rate.Limiter
	sleep    func(time.Duration) // injectable for testing
}

// DefaultRateLimiters returns the default per-host rate limiters for the
// public APIs the enrichment pipeline talks to.
func DefaultRateLimiters() map[string]*rate.Limiter {
	return map[string]*rate.Limiter{
		"www.wikidata.org":            rate.NewLimiter(5, 5),
		"commons.wikimedia.org":       rate.NewLimiter(5, 5),
		"en.wikipedia.org":            rate.NewLimiter(5, 5),
		"nominatim.openstreetmap.org": rate.NewLimiter(1, 1),
	}
}

// NewClient creates a JSON fetch client with the given options.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.PaceDelay == 0 {
		opts.PaceDelay = 300 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "heritage-cli/1.0"
	}
	limiters := make(map[string]*rate.Limiter)
	for k, v := range opts.RateLimiters {
		limiters[k] = v
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: limiters,
		fallback: rate.NewLimiter(5, 5),
		sleep:    time.Sleep,
	}
}

// WithSleep overrides the pacing sleep, for tests.
func (c *Client) WithSleep(fn func(time.Duration)) *Client {
	c.sleep = fn
	return c
}

func (c *Client) limiterFor(rawURL string) *rate.Limiter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return c.fallback
	}
	if lim, ok := c.limiters[u.Host]; ok {
		return lim
	}
	return c.fallback
}

// GetJSON fetches rawURL and decodes the response body into v. There are no
// retries: any transport failure, non-200 status, or malformed body is
// returned as an error for the caller to treat as a lookup miss.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	lim := c.limiterFor(rawURL)
	if err := lim.Wait(ctx); err != nil {
		return eris.Wrap(err, "fetch: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	// Pace after every call, success or not, before the next external fetch.
	defer c.sleep(c.opts.PaceDelay)
	if err != nil {
		return eris.Wrapf(err, "fetch: get %s", rawURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		zap.L().Debug("fetch: non-200 response",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
		)
		return eris.Errorf("fetch: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return eris.Wrapf(err, "fetch: decode %s", rawURL)
	}
	return nil
}
