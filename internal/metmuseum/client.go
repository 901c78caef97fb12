// Package metmuseum is a client for the Metropolitan Museum of Art collection API.
package metmuseum

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/artdiscover/artdiscover-server/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public collection API root.
	DefaultBaseURL = "https://collectionapi.metmuseum.org/public/collection/v1"

	defaultRPS      = 40.0
	defaultBurst    = 10
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = 10 * time.Minute

	// Bodies past this size are not object records.
	maxObjectBody = 1 << 20
	// Manifests hold hundreds of thousands of records.
	maxManifestBody = 256 << 20

	userAgent = "ArtDiscover/1.0"
)

// Options configures a Client. Zero values take defaults.
type Options struct {
	BaseURL  string
	Timeout  time.Duration // Per-request timeout
	RPS      float64
	Burst    int
	CacheTTL time.Duration // Lookup memo lifetime; negative disables the memo

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// Client is a rate-limited, memoizing collection API client.
type Client struct {
	http    *http.Client
	baseURL *url.URL
	timeout time.Duration
	limiter *ratelimit.KeyedRateLimiter
	cache   *gocache.Cache
	flight  singleflight.Group
	logger  *slog.Logger
}

// New creates a new collection API client.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}
	if opts.Burst < 1 {
		opts.Burst = defaultBurst
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = defaultCacheTTL
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid collection base url %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	var cache *gocache.Cache
	if opts.CacheTTL > 0 {
		cache = gocache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http:    httpClient,
		baseURL: base,
		timeout: opts.Timeout,
		limiter: ratelimit.New(opts.RPS, opts.Burst),
		cache:   cache,
		logger:  logger,
	}, nil
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
	if c.cache != nil {
		c.cache.Flush()
	}
}

// doRequest executes a GET with rate limiting and maps the status code.
func (c *Client) doRequest(ctx context.Context, u *url.URL, limit int64) ([]byte, error) {
	return c.doRequestWith(ctx, c.http, u, limit)
}

func (c *Client) doRequestWith(ctx context.Context, hc *http.Client, u *url.URL, limit int64) ([]byte, error) {
	if err := c.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) endpoint(elem ...string) *url.URL {
	return c.baseURL.JoinPath(elem...)
}
