// Package wikidata resolves heritage sites to Wikidata entities and extracts
// the claim bundle the enrichment pipeline cares about.
package wikidata

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/heritage-atlas/heritage-cli/internal/fetcher"
)

const (
	defaultAPIBaseURL    = "https://www.wikidata.org/w/api.php"
	defaultEntityBaseURL = "https://www.wikidata.org/wiki/Special:EntityData"
	defaultSearchLimit   = 3

	// Well-known property codes on heritage entities.
	propCoordinates     = "P625"
	propImage           = "P18"
	propCommonsCategory = "P373"
)

// Client performs Wikidata API lookups.
type Client struct {
	fetch         *fetcher.Client
	apiBaseURL    string
	entityBaseURL string
	searchLimit   int
}

// Option configures the client.
type Option func(*Client)

// WithAPIBaseURL overrides the action API base URL.
func WithAPIBaseURL(u string) Option {
	return func(c *Client) { c.apiBaseURL = u }
}

// WithEntityBaseURL overrides the Special:EntityData base URL.
func WithEntityBaseURL(u string) Option {
	return func(c *Client) { c.entityBaseURL = u }
}

// WithSearchLimit overrides the candidate limit for entity searches.
func WithSearchLimit(n int) Option {
	return func(c *Client) { c.searchLimit = n }
}

// NewClient creates a Wikidata client backed by the shared fetch adapter.
func NewClient(fetch *fetcher.Client, opts ...Option) *Client {
	c := &Client{
		fetch:         fetch,
		apiBaseURL:    defaultAPIBaseURL,
		entityBaseURL: defaultEntityBaseURL,
		searchLimit:   defaultSearchLimit,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchEntity is one candidate returned by wbsearchentities.
type SearchEntity struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type searchResponse struct {
	Search []SearchEntity `json:"search"`
}

// SearchEntities runs a wbsearchentities query for the combined name+country
// text and returns the candidates in API order.
func (c *Client) SearchEntities(ctx context.Context, query string) ([]SearchEntity, error) {
	params := url.Values{
		"action":   {"wbsearchentities"},
		"search":   {query},
		"language": {"en"},
		"format":   {"json"},
		"limit":    {strconv.Itoa(c.searchLimit)},
	}

	var resp searchResponse
	if err := c.fetch.GetJSON(ctx, c.apiBaseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, eris.Wrap(err, "wikidata: search entities")
	}
	return resp.Search, nil
}

// PickCandidate applies the tie-break rule: prefer the candidate whose
// description mentions "World Heritage" (case-insensitive), otherwise the
// first returned candidate. Returns nil for an empty slice.
func PickCandidate(candidates []SearchEntity) *SearchEntity {
	for i := range candidates {
		if strings.Contains(strings.ToLower(candidates[i].Description), "world heritage") {
			return &candidates[i]
		}
	}
	if len(candidates) > 0 {
		return &candidates[0]
	}
	return nil
}

// LatLon is a coordinate pair extracted from a P625 claim.
type LatLon struct {
	Lat float64
	Lon float64
}

// Bundle is the set of optional properties extracted from one entity. Zero
// values mean the entity carries no such claim.
type Bundle struct {
	Coordinates     *LatLon
	ImageFilename   string
	CommonsCategory string
}

// Entity data JSON: every nested level is optional, absence of a key is
// normal and never an error.
type entityDataResponse struct {
	Entities map[string]entityData `json:"entities"`
}

type entityData struct {
	Claims map[string][]claim `json:"claims"`
}

type claim struct {
	MainSnak snak `json:"mainsnak"`
}

type snak struct {
	DataValue dataValue `json:"datavalue"`
}

type dataValue struct {
	Value json.RawMessage `json:"value"`
}

type coordinateValue struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FetchEntityBundle fetches the full entity record for qid and extracts the
// coordinate, image filename, and Commons category claims. Missing claims
// yield absent sub-results without failing the whole fetch; only a transport
// or decode failure is an error.
func (c *Client) FetchEntityBundle(ctx context.Context, qid string) (Bundle, error) {
	var resp entityDataResponse
	if err := c.fetch.GetJSON(ctx, c.entityBaseURL+"/"+url.PathEscape(qid)+".json", &resp); err != nil {
		return Bundle{}, eris.Wrapf(err, "wikidata: fetch entity %s", qid)
	}

	entity, ok := resp.Entities[qid]
	if !ok {
		return Bundle{}, nil
	}

	var b Bundle
	if raw := firstClaimValue(entity.Claims, propCoordinates); raw != nil {
		var cv coordinateValue
		if err := json.Unmarshal(raw, &cv); err == nil {
			b.Coordinates = &LatLon{Lat: cv.Latitude, Lon: cv.Longitude}
		}
	}
	if raw := firstClaimValue(entity.Claims, propImage); raw != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			b.ImageFilename = s
		}
	}
	if raw := firstClaimValue(entity.Claims, propCommonsCategory); raw != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			b.CommonsCategory = s
		}
	}
	return b, nil
}

// firstClaimValue returns the first claim's raw datavalue for a property, or
// nil when the property is absent.
func firstClaimValue(claims map[string][]claim, prop string) json.RawMessage {
	cs := claims[prop]
	if len(cs) == 0 {
		return nil
	}
	return cs[0].MainSnak.DataValue.Value
}
