// Package geocode provides the approximate address geocoding fallback for
// records whose structured coordinate lookup came up empty.
package geocode

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/heritage-atlas/heritage-cli/internal/fetcher"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Result is a geocoded coordinate pair.
type Result struct {
	Latitude  float64
	Longitude float64
}

// Client geocodes free-form addresses against a Nominatim-compatible search
// endpoint.
type Client struct {
	fetch   *fetcher.Client
	baseURL string
	timeout time.Duration
	pace    time.Duration
	sleep   func(time.Duration) // injectable for testing
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the search endpoint base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout overrides the bounded wait for one geocode call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithPaceDelay overrides the extra pacing sleep after each geocode.
func WithPaceDelay(d time.Duration) Option {
	return func(c *Client) { c.pace = d }
}

// NewClient creates a geocoder backed by the shared fetch adapter.
func NewClient(fetch *fetcher.Client, opts ...Option) *Client {
	c := &Client{
		fetch:   fetch,
		baseURL: defaultBaseURL,
		timeout: 10 * time.Second,
		pace:    time.Second,
		sleep:   time.Sleep,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithSleep overrides the pacing sleep, for tests.
func (c *Client) WithSleep(fn func(time.Duration)) *Client {
	c.sleep = fn
	return c
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves a free-form address to the first result's coordinate. The
// call is bounded by the client timeout and never hangs; any failure or empty
// result returns (nil, err-or-nil) for the caller to treat as absent. An
// extra pacing sleep follows every call per the service's usage policy.
func (c *Client) Geocode(ctx context.Context, address string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	defer c.sleep(c.pace)

	params := url.Values{
		"q":      {address},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}

	var results []searchResult
	if err := c.fetch.GetJSON(ctx, c.baseURL+"/search?"+params.Encode(), &results); err != nil {
		return nil, eris.Wrapf(err, "geocode: search %q", address)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse latitude")
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse longitude")
	}
	return &Result{Latitude: lat, Longitude: lon}, nil
}
