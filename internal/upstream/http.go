package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/stephanfowler/pageview-sparks/internal/chart"
)

// maxBodySize bounds how much of a breakdown response is read.
const maxBodySize = 8 << 20

// HTTPClient fetches breakdowns from the analytics API.
type HTTPClient struct {
	baseURL   string
	timeout   time.Duration
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithRateLimit caps outbound requests per second. Zero or less
// leaves requests unlimited.
func WithRateLimit(rps float64) ClientOption {
	return func(c *HTTPClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
		}
	}
}

// WithUserAgent sets the User-Agent header on requests.
func WithUserAgent(ua string) ClientOption {
	return func(c *HTTPClient) { c.userAgent = ua }
}

// NewHTTPClient returns a client for the API at baseURL. Each
// fetch, including any wait for the rate limiter, is bounded by
// timeout.
func NewHTTPClient(
	baseURL string, timeout time.Duration, opts ...ClientOption,
) *HTTPClient {
	c := &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   timeout,
		client:    &http.Client{Timeout: timeout},
		userAgent: "pageview-sparks",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Source.
func (c *HTTPClient) Name() string { return "http" }

// Fetch implements Source.
func (c *HTTPClient) Fetch(
	ctx context.Context, page string,
) (chart.Payload, error) {
	path, err := pagePath(page)
	if err != nil {
		return chart.Payload{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return chart.Payload{}, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	apiURL := c.baseURL + "/api/breakdown?path=" + url.QueryEscape(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return chart.Payload{}, fmt.Errorf("creating breakdown request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return chart.Payload{}, fmt.Errorf("breakdown request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return chart.Payload{}, fmt.Errorf("breakdown API error: %d: %s",
			resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return chart.Payload{}, fmt.Errorf("reading breakdown response: %w", err)
	}
	return Decode(body), nil
}
