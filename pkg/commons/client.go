// Package commons looks up image info and category members on Wikimedia
// Commons.
package commons

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/heritage-atlas/heritage-cli/internal/fetcher"
)

const (
	defaultAPIBaseURL   = "https://commons.wikimedia.org/w/api.php"
	defaultGalleryLimit = 5
)

// Client performs Wikimedia Commons API lookups.
type Client struct {
	fetch        *fetcher.Client
	apiBaseURL   string
	galleryLimit int
}

// Option configures the client.
type Option func(*Client)

// WithAPIBaseURL overrides the API base URL.
func WithAPIBaseURL(u string) Option {
	return func(c *Client) { c.apiBaseURL = u }
}

// WithGalleryLimit overrides the category member limit.
func WithGalleryLimit(n int) Option {
	return func(c *Client) { c.galleryLimit = n }
}

// NewClient creates a Commons client backed by the shared fetch adapter.
func NewClient(fetch *fetcher.Client, opts ...Option) *Client {
	c := &Client{
		fetch:        fetch,
		apiBaseURL:   defaultAPIBaseURL,
		galleryLimit: defaultGalleryLimit,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ImageInfo is the direct URL and license of one Commons file.
type ImageInfo struct {
	URL     string
	License string
}

// Typed query response; every nested field is optional so a sparse or
// malformed response decodes to zero values instead of erroring.
type queryResponse struct {
	Query struct {
		Pages []page `json:"pages"`
	} `json:"query"`
}

type page struct {
	ImageInfo []imageInfoEntry `json:"imageinfo"`
}

type imageInfoEntry struct {
	URL         string      `json:"url"`
	ExtMetadata extMetadata `json:"extmetadata"`
}

type extMetadata struct {
	LicenseShortName metaValue `json:"LicenseShortName"`
	LicenseURL       metaValue `json:"LicenseUrl"`
}

type metaValue struct {
	Value string `json:"value"`
}

// normalizeTitle NFC-normalizes a file or category name and replaces spaces
// with underscores the way MediaWiki titles expect.
func normalizeTitle(name string) string {
	return strings.ReplaceAll(norm.NFC.String(name), " ", "_")
}

// FetchImageInfo resolves a Commons filename to its direct URL and license.
// The license prefers the short license name, falls back to the license URL,
// and defaults to empty. Returns (nil, nil) when the file has no image info.
func (c *Client) FetchImageInfo(ctx context.Context, filename string) (*ImageInfo, error) {
	params := url.Values{
		"action":        {"query"},
		"titles":        {"File:" + normalizeTitle(filename)},
		"prop":          {"imageinfo"},
		"iiprop":        {"url|extmetadata"},
		"format":        {"json"},
		"formatversion": {"2"},
	}

	var resp queryResponse
	if err := c.fetch.GetJSON(ctx, c.apiBaseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, eris.Wrapf(err, "commons: image info %s", filename)
	}

	for _, p := range resp.Query.Pages {
		if len(p.ImageInfo) == 0 || p.ImageInfo[0].URL == "" {
			continue
		}
		info := p.ImageInfo[0]
		license := info.ExtMetadata.LicenseShortName.Value
		if license == "" {
			license = info.ExtMetadata.LicenseURL.Value
		}
		return &ImageInfo{URL: info.URL, License: license}, nil
	}
	return nil, nil
}

// CategoryImages lists direct URLs of up to the gallery limit of file members
// of a Commons category, in API response order. An empty category or a failed
// lookup yields an empty slice.
func (c *Client) CategoryImages(ctx context.Context, category string) ([]string, error) {
	params := url.Values{
		"action":        {"query"},
		"generator":     {"categorymembers"},
		"gcmtitle":      {"Category:" + normalizeTitle(category)},
		"gcmtype":       {"file"},
		"gcmlimit":      {strconv.Itoa(c.galleryLimit)},
		"prop":          {"imageinfo"},
		"iiprop":        {"url"},
		"format":        {"json"},
		"formatversion": {"2"},
	}

	var resp queryResponse
	if err := c.fetch.GetJSON(ctx, c.apiBaseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, eris.Wrapf(err, "commons: category images %s", category)
	}

	var urls []string
	for _, p := range resp.Query.Pages {
		if len(p.ImageInfo) > 0 && p.ImageInfo[0].URL != "" {
			urls = append(urls, p.ImageInfo[0].URL)
		}
	}
	return urls, nil
}
