package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/wikisophy/internal/logging"
	"github.com/aretw0/wikisophy/pkg/domain"
)

const (
	// DefaultUserAgent identifies the client to the Wikimedia APIs.
	DefaultUserAgent = "Wikisophy/2.0 (Educational)"
	// DefaultLanguage selects the English Wikipedia.
	DefaultLanguage = "en"

	maxBodySize = 8 << 20
)

// LeadMode selects how the lead-section markup is obtained.
type LeadMode string

const (
	// LeadModeParse asks the Action API to render section 0 only.
	LeadModeParse LeadMode = "parse"
	// LeadModePage downloads the full article page and slices the lead out of it.
	LeadModePage LeadMode = "page"
)

// HTTPError represents a non-200 response from a Wikimedia endpoint.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Unwrap maps 404 responses to domain.ErrNotFound.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

// Temporary reports whether the request may succeed if retried (429 or 5xx).
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Client implements ports.Source against the Wikipedia Action and REST APIs.
type Client struct {
	httpClient *http.Client
	apiURL     string // .../w/api.php
	restURL    string // .../api/rest_v1
	pageURL    string // .../wiki/
	userAgent  string
	leadMode   LeadMode
	retries    int
	backoff    time.Duration
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client (and thereby the request timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLanguage targets the Wikipedia of the given language code (e.g. "fr").
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.setHost("https://" + lang + ".wikipedia.org")
	}
}

// WithBaseURL targets a custom host root, e.g. a mirror or a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.setHost(base)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLeadMode selects how lead markup is fetched.
func WithLeadMode(mode LeadMode) Option {
	return func(c *Client) {
		c.leadMode = mode
	}
}

// WithRetries sets how many times a 429/5xx response is retried, and the initial backoff.
func WithRetries(retries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = retries
		c.backoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Wikipedia client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  DefaultUserAgent,
		leadMode:   LeadModeParse,
		retries:    2,
		backoff:    500 * time.Millisecond,
		logger:     logging.NewNop(),
	}
	c.setHost("https://" + DefaultLanguage + ".wikipedia.org")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) setHost(base string) {
	base = strings.TrimRight(base, "/")
	c.apiURL = base + "/w/api.php"
	c.restURL = base + "/api/rest_v1"
	c.pageURL = base + "/wiki/"
}

// PageURL returns the prefix of article page URLs, e.g. "https://en.wikipedia.org/wiki/".
func (c *Client) PageURL() string {
	return c.pageURL
}

// get performs a GET with retries on temporary HTTP errors.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying wikipedia request", "url", rawURL, "attempt", attempt, "wait", wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, err := c.fetch(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.Temporary() {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("exceeded max retries: %w", lastErr)
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// pathTitle formats a title for use as a URL path segment.
func pathTitle(title string) string {
	return strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
}
