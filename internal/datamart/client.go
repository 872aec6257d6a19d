// Package datamart retrieves documents from the MSC Datamart over HTTP.
//
// Every endpoint declares its own character encoding; bodies are returned as
// UTF-8. Catalog requests may be served from an expiring cache owned by the
// client, data requests always go to the network.
package datamart

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://dd.weather.gc.ca"
	DefaultTimeout = 10 * time.Second
	// DefaultMaxBodySize caps every response body.
	DefaultMaxBodySize = 32 << 20
)

// Resource describes one retrieval.
type Resource struct {
	URL       string
	Encoding  Encoding
	Cacheable bool
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	CacheExpiry time.Duration
	HTTPClient  *http.Client
	MaxBodySize int64
}

// Client fetches Datamart documents.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *Cache
	maxBody    int64
	logger     *zap.SugaredLogger
}

// NewClient creates a Client. A caller-supplied HTTP client keeps its own
// timeout unless it has none.
func NewClient(opts Options, logger *zap.SugaredLogger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheExpiry == 0 {
		opts.CacheExpiry = DefaultCacheExpiry
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if hc.Timeout == 0 {
		hc.Timeout = opts.Timeout
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: hc,
		cache:      NewCache(opts.CacheExpiry),
		maxBody:    opts.MaxBodySize,
		logger:     logger,
	}
}

// URL joins path onto the client's base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Cache returns the client's response cache.
func (c *Client) Cache() *Cache {
	return c.cache
}

// Fetch retrieves r and returns its body transcoded to UTF-8.
func (c *Client) Fetch(ctx context.Context, r Resource) ([]byte, error) {
	if r.Cacheable {
		if body, ok := c.cache.Get(r.URL); ok {
			c.logger.Debugf("cache hit for %s", r.URL)
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request for %s: %w", ErrTransport, r.URL, err)
	}

	c.logger.Debugf("fetching %s (%v)", r.URL, r.Encoding)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: r.URL, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrTransport, r.URL, err)
	}
	if int64(len(raw)) > c.maxBody {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrTransport, r.URL, c.maxBody)
	}

	body, err := decode(raw, r.Encoding, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s as %v: %w", ErrDocument, r.URL, r.Encoding, err)
	}

	if r.Cacheable {
		c.cache.Set(r.URL, body)
	}
	return body, nil
}
