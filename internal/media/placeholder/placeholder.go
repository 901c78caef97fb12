// Package placeholder computes BlurHash placeholders for artwork thumbnails.
package placeholder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

const (
	// maxImageSize limits download size to prevent memory exhaustion.
	maxImageSize = 8 * 1024 * 1024

	defaultTimeout  = 5 * time.Second
	defaultCacheTTL = time.Hour
)

// ErrEmptyURL is returned for an artwork without a small image.
var ErrEmptyURL = errors.New("placeholder: empty image url")

// Options configures a Generator. Zero values take defaults.
type Options struct {
	Timeout    time.Duration
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

// Generator downloads thumbnails and hashes them. Hashes, not image bytes,
// are kept in memory keyed by URL.
type Generator struct {
	http    *http.Client
	timeout time.Duration
	cache   *gocache.Cache
	flight  singleflight.Group
	logger  *slog.Logger
}

// New creates a Generator.
func New(opts Options, logger *slog.Logger) *Generator {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		http:    opts.HTTPClient,
		timeout: opts.Timeout,
		cache:   gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
		logger:  logger,
	}
}

// Decorate sets art.Placeholder from its small image. Failures leave the
// artwork unchanged.
func (g *Generator) Decorate(ctx context.Context, art *domain.Artwork) {
	hash, err := g.Hash(ctx, art.PrimaryImageSmall)
	if err != nil {
		g.logger.Debug("placeholder skipped", "object_id", art.ObjectID, "error", err)
		return
	}
	art.Placeholder = hash
}

// Hash returns the BlurHash of the image at url.
func (g *Generator) Hash(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", ErrEmptyURL
	}
	if v, ok := g.cache.Get(url); ok {
		return v.(string), nil
	}

	ch := g.flight.DoChan(url, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()

		hash, err := g.compute(fetchCtx, url)
		if err != nil {
			return "", err
		}
		g.cache.SetDefault(url, hash)
		return hash, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *Generator) compute(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return "", fmt.Errorf("read data: %w", err)
	}

	return ComputeBlurHash(bytes.NewReader(data))
}
