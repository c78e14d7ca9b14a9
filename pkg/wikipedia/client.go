// Package wikipedia provides the free-text encyclopedia fallback used when
// the structured Wikidata path yields no image.
package wikipedia

import (
	"context"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/heritage-atlas/heritage-cli/internal/fetcher"
)

const (
	defaultAPIBaseURL  = "https://en.wikipedia.org/w/api.php"
	defaultRestBaseURL = "https://en.wikipedia.org/api/rest_v1"
)

// Client performs Wikipedia search and summary lookups.
type Client struct {
	fetch       *fetcher.Client
	apiBaseURL  string
	restBaseURL string
}

// Option configures the client.
type Option func(*Client)

// WithAPIBaseURL overrides the action API base URL.
func WithAPIBaseURL(u string) Option {
	return func(c *Client) { c.apiBaseURL = u }
}

// WithRestBaseURL overrides the REST API base URL.
func WithRestBaseURL(u string) Option {
	return func(c *Client) { c.restBaseURL = u }
}

// NewClient creates a Wikipedia client backed by the shared fetch adapter.
func NewClient(fetch *fetcher.Client, opts ...Option) *Client {
	c := &Client{
		fetch:       fetch,
		apiBaseURL:  defaultAPIBaseURL,
		restBaseURL: defaultRestBaseURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Query struct {
		Search []searchHit `json:"search"`
	} `json:"query"`
}

type searchHit struct {
	Title string `json:"title"`
}

type summaryResponse struct {
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

// SearchTitle runs a full-text search limited to one result and returns the
// canonical title of the top hit, or "" when nothing matches.
func (c *Client) SearchTitle(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {"1"},
		"format":   {"json"},
	}

	var resp searchResponse
	if err := c.fetch.GetJSON(ctx, c.apiBaseURL+"?"+params.Encode(), &resp); err != nil {
		return "", eris.Wrap(err, "wikipedia: search")
	}
	if len(resp.Query.Search) == 0 {
		return "", nil
	}
	return resp.Query.Search[0].Title, nil
}

// SummaryThumbnail fetches the page summary for a title and returns its
// thumbnail URL, or "" when the page carries none.
func (c *Client) SummaryThumbnail(ctx context.Context, title string) (string, error) {
	var resp summaryResponse
	if err := c.fetch.GetJSON(ctx, c.restBaseURL+"/page/summary/"+url.PathEscape(title), &resp); err != nil {
		return "", eris.Wrapf(err, "wikipedia: summary %s", title)
	}
	return resp.Thumbnail.Source, nil
}

// FallbackImage combines search and summary: it resolves the combined
// name+country query to a canonical title, then extracts that page's
// thumbnail. The license is unknown for this path. Returns "" when either
// step comes up empty.
func (c *Client) FallbackImage(ctx context.Context, query string) (string, error) {
	title, err := c.SearchTitle(ctx, query)
	if err != nil || title == "" {
		return "", err
	}
	return c.SummaryThumbnail(ctx, title)
}
