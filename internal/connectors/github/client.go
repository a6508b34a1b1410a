// Package github adapts the GitHub REST API to the unified provider contract.
package github

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/ternarybob/kirei/internal/interfaces"
	"github.com/ternarybob/kirei/internal/models"
)

const (
	// DefaultBaseURL is the public GitHub REST API root.
	DefaultBaseURL = "https://api.github.com/"

	// UserAgent is sent with every request.
	UserAgent = "kirei-cli"

	issuesPerPage = 20
	reposPerPage  = 100
)

// Client implements interfaces.ProviderClient for GitHub
type Client struct {
	client      *github.Client
	defaultRepo string
	logger      arbor.ILogger
	limiter     *rate.Limiter
}

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	rateLimit  int
}

// Option configures the Client.
type Option func(*clientOptions)

// WithBaseURL points the client at another API root (GitHub Enterprise, tests).
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithHTTPClient sets the underlying HTTP client. Bearer auth is layered on top of its transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithRateLimit sets requests per second. Zero or less disables limiting.
func WithRateLimit(requestsPerSecond int) Option {
	return func(o *clientOptions) {
		o.rateLimit = requestsPerSecond
	}
}

// NewClient creates a GitHub client authenticating with token. defaultRepo
// ("owner/repo") is used when a query carries no repo.
func NewClient(token, defaultRepo string, opts ...Option) (*Client, error) {
	o := &clientOptions{
		baseURL:   DefaultBaseURL,
		rateLimit: 5,
	}
	for _, opt := range opts {
		opt(o)
	}

	base := o.httpClient
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = base.Timeout

	client := github.NewClient(tc)
	client.UserAgent = UserAgent

	baseURL := o.baseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, models.NewConfigurationError(models.ProviderGitHub, fmt.Sprintf("invalid base URL %q", o.baseURL), err)
	}
	client.BaseURL = parsed

	limiter := rate.NewLimiter(rate.Inf, 0)
	if o.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(o.rateLimit), o.rateLimit)
	}

	return &Client{
		client:      client,
		defaultRepo: defaultRepo,
		logger:      o.logger,
		limiter:     limiter,
	}, nil
}

// Provider returns models.ProviderGitHub
func (c *Client) Provider() models.ProviderID {
	return models.ProviderGitHub
}

// do sends one request through go-github and returns the raw response body,
// so each entity's JSON can be kept verbatim
func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewTransportError(models.ProviderGitHub, "rate limiter wait aborted", err)
	}

	req, err := c.client.NewRequest(method, path, body)
	if err != nil {
		return nil, models.NewTransportError(models.ProviderGitHub, "failed to create request", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("url", req.URL.String()).
			Msg("GitHub API request")
	}

	var buf bytes.Buffer
	if _, err := c.client.Do(ctx, req, &buf); err != nil {
		return nil, models.NewTransportError(models.ProviderGitHub, fmt.Sprintf("%s %s", method, path), err)
	}

	return buf.Bytes(), nil
}

// Ensure interface compliance
var _ interfaces.ProviderClient = (*Client)(nil)
