// Package spotify fetches catalog tracks from the Spotify Web API.
//
// The fetch path is artist search, then the artist's top tracks, then a batch
// audio-features lookup. Tracks the features endpoint cannot serve fall back
// to preview analysis plus deterministic synthesis, so a fetched catalog never
// contains half-empty vectors.
package spotify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/segue/internal/core/ports"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"

	// Spotify allows roughly 180 requests per rolling minute.
	defaultRequestsPerSec = 3
	defaultBurst          = 5

	topTracksMarket = "US"
)

// Config carries credentials and endpoint overrides for the Spotify client.
// Empty ClientID skips the client-credentials flow, which is what tests
// pointing BaseURL at a fake server want.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
}

// Client talks to the Spotify Web API with retries and rate limiting.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
	log         zerolog.Logger
}

// compile-time interface assertion
var _ ports.CatalogFetcher = (*Client)(nil)

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient replaces the transport, bypassing the oauth2 client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithRateLimit overrides the request budget per second.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *Client) {
		if perSec > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
		}
	}
}

// WithRetry overrides the retry budget and initial backoff.
func WithRetry(maxRetries int, baseBackoff time.Duration) Option {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		if baseBackoff > 0 {
			c.baseBackoff = baseBackoff
		}
	}
}

// NewClient constructs a Spotify client. With credentials present the
// underlying transport exchanges and refreshes tokens via the
// client-credentials flow; request code never sees auth.
func NewClient(cfg Config, opts ...Option) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := http.DefaultClient
	if cfg.ClientID != "" {
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = defaultTokenURL
		}
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
		}
		httpClient = cc.Client(context.Background())
	}

	c := &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		limiter:     rate.NewLimiter(rate.Limit(defaultRequestsPerSec), defaultBurst),
		maxRetries:  defaultMaxRetries,
		baseBackoff: time.Duration(defaultBackoffMs) * time.Millisecond,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
