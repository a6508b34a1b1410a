// Package trello adapts the Trello REST API to the unified provider contract.
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/httpclient"
	"github.com/ternarybob/kirei/internal/interfaces"
	"github.com/ternarybob/kirei/internal/models"
)

// DefaultBaseURL is the Trello REST API root
const DefaultBaseURL = "https://api.trello.com/1"

// Client implements interfaces.ProviderClient for Trello. Every request
// carries the API key and token as query parameters.
type Client struct {
	http         *httpclient.Client
	apiKey       string
	defaultBoard string
	logger       arbor.ILogger
}

// NewClient creates a Trello client. An empty apiKey is reported as a
// configuration error on first use.
func NewClient(token, apiKey, defaultBoard string, logger arbor.ILogger, opts ...httpclient.Option) *Client {
	base := []httpclient.Option{
		httpclient.WithBaseURL(DefaultBaseURL),
		httpclient.WithLogger(logger),
	}
	base = append(base, opts...)
	base = append(base,
		httpclient.WithQueryParam("key", apiKey),
		httpclient.WithQueryParam("token", token),
	)

	return &Client{
		http:         httpclient.New(models.ProviderTrello, base...),
		apiKey:       apiKey,
		defaultBoard: defaultBoard,
		logger:       logger,
	}
}

// Provider returns models.ProviderTrello
func (c *Client) Provider() models.ProviderID {
	return models.ProviderTrello
}

func (c *Client) checkAPIKey() error {
	if c.apiKey == "" {
		return models.NewConfigurationError(models.ProviderTrello, "trello.api_key is not configured", nil)
	}
	return nil
}

func (c *Client) resolveBoard(override string) (string, error) {
	if err := c.checkAPIKey(); err != nil {
		return "", err
	}
	board := models.FirstNonEmpty(override, c.defaultBoard)
	if board == "" {
		return "", models.NewConfigurationError(models.ProviderTrello, "board is required", nil)
	}
	return board, nil
}

// boardList is one column of a board
type boardList struct {
	ID   string
	Name string
}

// lists fetches the board's lists in board order
func (c *Client) lists(ctx context.Context, boardID string) ([]boardList, error) {
	items, err := c.getArray(ctx, fmt.Sprintf("/boards/%s/lists", url.PathEscape(boardID)), nil)
	if err != nil {
		return nil, err
	}

	lists := make([]boardList, 0, len(items))
	for _, item := range items {
		lists = append(lists, boardList{
			ID:   item.Get("id").String(),
			Name: item.Get("name").String(),
		})
	}
	return lists, nil
}

func (c *Client) getArray(ctx context.Context, path string, params url.Values) ([]gjson.Result, error) {
	body, err := c.http.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return parseArray(body)
}

func (c *Client) sendObject(ctx context.Context, method, path string, params url.Values) (gjson.Result, error) {
	body, err := c.http.Do(ctx, method, path, params, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return parseObject(body)
}

func listNames(lists []boardList) map[string]string {
	names := make(map[string]string, len(lists))
	for _, l := range lists {
		names[l.ID] = l.Name
	}
	return names
}

// findList matches a list by name, case-insensitively
func findList(lists []boardList, name string) (boardList, bool) {
	for _, l := range lists {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return boardList{}, false
}

func parseArray(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, models.NewUnexpectedResponse(models.ProviderTrello, string(body))
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, models.NewUnexpectedResponse(models.ProviderTrello, string(body))
	}
	return parsed.Array(), nil
}

func parseObject(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, models.NewUnexpectedResponse(models.ProviderTrello, string(body))
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return gjson.Result{}, models.NewUnexpectedResponse(models.ProviderTrello, string(body))
	}
	return parsed, nil
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
