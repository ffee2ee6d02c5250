// Package places provides address and postcode geocoding via the OS Places
// API. Matches come back with projected National Grid coordinates plus the
// LPI metadata shown on the dashboard (administrative area, classification,
// address status, match score).
package places

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client geocodes free-text address queries.
type Client interface {
	// Find returns the best match for a free-text query, or a result with
	// Matched=false when the API returns no candidates.
	Find(ctx context.Context, query string) (*Match, error)
}

// Match holds the geocoding output for one query.
type Match struct {
	Address            string  `json:"address"`
	AdministrativeArea string  `json:"administrative_area"`
	Classification     string  `json:"classification"`
	StatusDescription  string  `json:"status_description"`
	MatchScore         float64 `json:"match_score"`
	Easting            float64 `json:"easting"`
	Northing           float64 `json:"northing"`
	Matched            bool    `json:"matched"`
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(u string) Option {
	return func(c *client) {
		c.baseURL = u
	}
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// WithCountryFilter sets the fq country-code filter sent with each request.
func WithCountryFilter(fq string) Option {
	return func(c *client) {
		c.countryFilter = fq
	}
}

// WithDataset sets the dataset requested from the API.
func WithDataset(ds string) Option {
	return func(c *client) {
		c.dataset = ds
	}
}

// WithCache attaches a persistent result cache.
func WithCache(cache *Cache) Option {
	return func(c *client) {
		c.cache = cache
	}
}

type client struct {
	key           string
	baseURL       string
	countryFilter string
	dataset       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	cache         *Cache
}

// NewClient creates a Places API client with the given key and options.
func NewClient(key string, opts ...Option) Client {
	c := &client{
		key:           key,
		baseURL:       "https://api.os.uk/search/places/v1",
		countryFilter: "COUNTRY_CODE:E COUNTRY_CODE:S COUNTRY_CODE:W",
		dataset:       "LPI",
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		limiter:       rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
