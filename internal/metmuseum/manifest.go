package metmuseum

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultManifestTimeout = 2 * time.Minute

// ManifestSource downloads a manifest document through the client's rate limiter.
type ManifestSource struct {
	client *Client
	http   *http.Client
	url    *url.URL
}

// Manifest returns a source for the manifest at rawURL.
func (c *Client) Manifest(rawURL string) (*ManifestSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, wrapError("fetchManifest", 0, fmt.Errorf("%w: manifest url %q", ErrBadRequest, rawURL))
	}

	hc := c.http
	if hc.Timeout > 0 && hc.Timeout < defaultManifestTimeout {
		// The lookup timeout is sized for single objects.
		clone := *hc
		clone.Timeout = defaultManifestTimeout
		hc = &clone
	}

	return &ManifestSource{client: c, http: hc, url: u}, nil
}

// Fetch returns the raw manifest bytes.
func (m *ManifestSource) Fetch(ctx context.Context) ([]byte, error) {
	body, err := m.client.doRequestWith(ctx, m.http, m.url, maxManifestBody)
	if err != nil {
		return nil, wrapError("fetchManifest", 0, err)
	}
	m.client.logger.Info("manifest downloaded", "url", m.url.String(), "bytes", len(body))
	return body, nil
}

// String describes the source for logs.
func (m *ManifestSource) String() string {
	return m.url.String()
}
