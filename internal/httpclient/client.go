// Package httpclient provides the rate-limited JSON transport shared by the
// Linear, Trello and Jira adapters.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/kirei/internal/models"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5
)

// Client performs JSON requests against one provider API root.
type Client struct {
	provider   models.ProviderID
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	headers    http.Header
	query      url.Values
	username   string
	password   string
	basicAuth  bool
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets the API root. A trailing slash is dropped.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit. Zero or less disables limiting.
func WithRateLimit(requestsPerSecond int) Option {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithBearerToken authenticates every request with "Authorization: Bearer <token>".
func WithBearerToken(token string) Option {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithBasicAuth authenticates every request with HTTP Basic credentials.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
		c.basicAuth = true
	}
}

// WithQueryParam adds a query parameter sent on every request. Values set this
// way are treated as secrets and never logged.
func WithQueryParam(key, value string) Option {
	return func(c *Client) {
		c.query.Set(key, value)
	}
}

// New creates a client for provider.
func New(provider models.ProviderID, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		headers: http.Header{},
		query:   url.Values{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError represents a non-2xx response from a provider API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Get performs a GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, params, nil)
}

// Post performs a POST request with a JSON body and returns the response body.
func (c *Client) Post(ctx context.Context, path string, params url.Values, body interface{}) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, params, body)
}

// Put performs a PUT request with a JSON body and returns the response body.
func (c *Client) Put(ctx context.Context, path string, params url.Values, body interface{}) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, params, body)
}

// Do performs one request. Every failure is a transport error; a non-2xx
// status wraps an *APIError carrying the response text.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewTransportError(c.provider, "rate limiter wait aborted", err)
	}

	reqURL := c.baseURL + path

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	for k, v := range c.query {
		query[k] = v
	}
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, models.NewTransportError(c.provider, "failed to encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, models.NewTransportError(c.provider, "failed to create request", err)
	}

	for k, v := range c.headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.basicAuth {
		req.SetBasicAuth(c.username, c.password)
	}

	if c.logger != nil {
		// params only: the shared query carries credentials
		logURL := c.baseURL + path
		if len(params) > 0 {
			logURL = logURL + "?" + params.Encode()
		}
		c.logger.Debug().
			Str("provider", string(c.provider)).
			Str("method", method).
			Str("url", logURL).
			Msg("Provider API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewTransportError(c.provider, fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewTransportError(c.provider, "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewTransportError(c.provider, "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
			Endpoint:   path,
		})
	}

	return data, nil
}
