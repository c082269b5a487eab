// Package forecast fetches and renders weather forecasts from a wttr.in
// compatible provider.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://wttr.in"
	DefaultTimeout     = 30 * time.Second
	DefaultCacheTTL    = 10 * time.Minute
	DefaultAttempts    = 3
	DefaultDays        = 3
	DefaultRetryDelay  = time.Second
	defaultCacheSize   = 1024
	maxErrorBodyLength = 512
)

// ErrUnknownLocation is returned when the provider does not know the location.
var ErrUnknownLocation = errors.New("unknown location")

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches forecasts. Successful reports are memoized per location.
type Client struct {
	baseURL    string
	http       HTTPClient
	attempts   uint
	retryDelay time.Duration
	cacheTTL   time.Duration
	cache      *otter.Cache[string, *Report]
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another provider instance.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithAttempts sets the number of tries for a request, including the first.
func WithAttempts(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithRetryDelay sets the base backoff delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithCacheTTL sets how long reports are memoized. Zero disables memoization.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a Client for DefaultBaseURL unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		http:       &http.Client{Timeout: DefaultTimeout},
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
		cacheTTL:   DefaultCacheTTL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheTTL > 0 {
		c.cache = otter.Must(&otter.Options[string, *Report]{
			MaximumSize:      defaultCacheSize,
			ExpiryCalculator: otter.ExpiryWriting[string, *Report](c.cacheTTL),
		})
	}
	return c
}

// Forecast returns the report for location. The returned report may be
// shared with later callers and must not be modified.
func (c *Client) Forecast(ctx context.Context, location string) (*Report, error) {
	key := strings.ToUpper(strings.TrimSpace(location))
	if key == "" {
		return nil, fmt.Errorf("forecast: empty location")
	}

	if c.cache != nil {
		if r, ok := c.cache.GetIfPresent(key); ok {
			c.logger.Debug("forecast cache hit", zap.String("location", key))
			return r, nil
		}
	}

	endpoint := c.baseURL + "/" + url.PathEscape(strings.TrimSpace(location)) + "?format=j1"

	var payload j1Payload
	err := retry.Do(
		func() error {
			return c.fetch(ctx, endpoint, &payload)
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying forecast request",
				zap.String("location", location),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("forecast for %q: %w", location, err)
	}

	r, err := payload.report()
	if err != nil {
		return nil, fmt.Errorf("forecast for %q: decoding report: %w", location, err)
	}

	if c.cache != nil {
		c.cache.Set(key, r)
	}
	return r, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, dst *j1Payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("forecast request completed",
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return retry.Unrecoverable(ErrUnknownLocation)
	case resp.StatusCode >= 500:
		return fmt.Errorf("server error: %s", statusText(resp))
	case resp.StatusCode != http.StatusOK:
		return retry.Unrecoverable(fmt.Errorf("unexpected response: %s", statusText(resp)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func statusText(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Sprintf("%d %s", resp.StatusCode, msg)
	}
	return resp.Status
}
