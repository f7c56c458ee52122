// Package sources fetches the dashboard's external feeds: ISS position,
// orbital elements, launches, crew, Kp index and news headlines.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/litescript/ls-spacelight/internal/logging"
	"github.com/litescript/ls-spacelight/internal/version"
)

const (
	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 15 * time.Second

	// maxBodyBytes caps response bodies; every feed is far smaller.
	maxBodyBytes = 4 << 20
)

// Endpoints holds the URL of each upstream feed.
type Endpoints struct {
	ISS      string
	TLE      string
	Launches string
	Crew     string
	Kp       string
	News     string
}

// DefaultEndpoints returns the public feed URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		ISS:      "https://api.wheretheiss.at/v1/satellites/25544",
		TLE:      "https://celestrak.org/NORAD/elements/gp.php?CATNR=25544&FORMAT=tle",
		Launches: "https://ll.thespacedevs.com/2.2.0/launch/upcoming/?limit=5",
		Crew:     "http://api.open-notify.org/astros.json",
		Kp:       "https://services.swpc.noaa.gov/json/planetary_k_index_1m.json",
		News:     "https://api.spaceflightnewsapi.net/v4/articles/?limit=1",
	}
}

// StatusError is returned for a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// Client fetches and decodes the external feeds.
type Client struct {
	client    *http.Client
	timeout   time.Duration
	endpoints Endpoints
	limiter   *HostLimiter
	log       *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoints overrides the feed URLs.
func WithEndpoints(e Endpoints) ClientOption {
	return func(c *Client) {
		c.endpoints = e
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithLimiter sets the per-host request throttle.
func WithLimiter(l *HostLimiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *logging.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a new feed client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:   DefaultTimeout,
		endpoints: DefaultEndpoints(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{
			Timeout: c.timeout,
		}
	}
	if c.limiter == nil {
		c.limiter = NewHostLimiter(DefaultHostRate, DefaultHostBurst)
	}

	return c
}

// Endpoints returns the configured feed URLs.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// getJSON fetches rawURL and decodes the body into dst.
func (c *Client) getJSON(ctx context.Context, rawURL string, dst any) error {
	body, err := c.get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if err := c.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", u.Host, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	c.log.Debug("GET %s -> %d in %v", rawURL, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
