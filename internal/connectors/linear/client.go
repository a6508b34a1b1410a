// Package linear adapts the Linear GraphQL API to the unified provider contract.
package linear

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/httpclient"
	"github.com/ternarybob/kirei/internal/interfaces"
	"github.com/ternarybob/kirei/internal/models"
)

// DefaultEndpoint is the single GraphQL endpoint for queries and mutations
const DefaultEndpoint = "https://api.linear.app/graphql"

const pageSize = 20

// Client implements interfaces.ProviderClient for Linear
type Client struct {
	http             *httpclient.Client
	defaultWorkspace string
	logger           arbor.ILogger
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// NewClient creates a Linear client. defaultWorkspace is the team id used
// when a query carries no workspace; it may be empty.
func NewClient(token, defaultWorkspace string, logger arbor.ILogger, opts ...httpclient.Option) *Client {
	base := []httpclient.Option{
		httpclient.WithBaseURL(DefaultEndpoint),
		httpclient.WithLogger(logger),
	}
	base = append(base, opts...)
	base = append(base, httpclient.WithBearerToken(token))

	return &Client{
		http:             httpclient.New(models.ProviderLinear, base...),
		defaultWorkspace: defaultWorkspace,
		logger:           logger,
	}
}

// Provider returns models.ProviderLinear
func (c *Client) Provider() models.ProviderID {
	return models.ProviderLinear
}

// query posts one GraphQL document and returns the value at path. A missing
// path is an unexpected response carrying the whole body, since Linear
// reports application errors with a 200 status.
func (c *Client) query(ctx context.Context, document string, variables map[string]interface{}, path string) (gjson.Result, error) {
	result, _, err := c.queryWithBody(ctx, document, variables, path)
	return result, err
}

// queryWithBody also returns the whole response so callers can report it verbatim
func (c *Client) queryWithBody(ctx context.Context, document string, variables map[string]interface{}, path string) (gjson.Result, []byte, error) {
	body, err := c.http.Do(ctx, http.MethodPost, "", nil, graphQLRequest{Query: document, Variables: variables})
	if err != nil {
		return gjson.Result{}, nil, err
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, body, models.NewUnexpectedResponse(models.ProviderLinear, string(body))
	}

	result := gjson.GetBytes(body, path)
	if !result.Exists() || result.Type == gjson.Null {
		if c.logger != nil {
			c.logger.Warn().
				Str("path", path).
				Str("errors", gjson.GetBytes(body, "errors.#.message").String()).
				Msg("Linear response missing expected data")
		}
		return gjson.Result{}, body, models.NewUnexpectedResponse(models.ProviderLinear, string(body))
	}
	return result, body, nil
}

func (c *Client) nodes(ctx context.Context, document string, variables map[string]interface{}, path string) ([]gjson.Result, error) {
	result, body, err := c.queryWithBody(ctx, document, variables, path)
	if err != nil {
		return nil, err
	}
	if !result.IsArray() {
		return nil, models.NewUnexpectedResponse(models.ProviderLinear, string(body))
	}
	return result.Array(), nil
}

func stringOr(value gjson.Result, fallback string) string {
	if value.Type == gjson.String {
		return value.Str
	}
	return fallback
}

func raw(value gjson.Result) json.RawMessage {
	return json.RawMessage(value.Raw)
}

// Ensure interface compliance
var _ interfaces.ProviderClient = (*Client)(nil)
