// Package jira adapts the Jira Cloud REST API (v3) to the unified provider contract.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/httpclient"
	"github.com/ternarybob/kirei/internal/interfaces"
	"github.com/ternarybob/kirei/internal/models"
)

const (
	maxResults = 50
	issueType  = "Task"
)

// Client implements interfaces.ProviderClient for Jira. Requests use HTTP
// Basic auth with the account email as user and the API token as password.
type Client struct {
	http           *httpclient.Client
	serverURL      string
	email          string
	defaultProject string
	logger         arbor.ILogger
}

// NewClient creates a Jira client for serverURL (e.g. https://example.atlassian.net).
// A missing server URL or email is reported as a configuration error on first use.
func NewClient(token, serverURL, email, defaultProject string, logger arbor.ILogger, opts ...httpclient.Option) *Client {
	serverURL = strings.TrimRight(serverURL, "/")

	base := []httpclient.Option{
		httpclient.WithBaseURL(serverURL),
		httpclient.WithLogger(logger),
	}
	base = append(base, opts...)
	base = append(base, httpclient.WithBasicAuth(email, token))

	return &Client{
		http:           httpclient.New(models.ProviderJira, base...),
		serverURL:      serverURL,
		email:          email,
		defaultProject: defaultProject,
		logger:         logger,
	}
}

// Provider returns models.ProviderJira
func (c *Client) Provider() models.ProviderID {
	return models.ProviderJira
}

func (c *Client) checkServer() error {
	if c.serverURL == "" {
		return models.NewConfigurationError(models.ProviderJira, "jira.server_url is not configured", nil)
	}
	if c.email == "" {
		return models.NewConfigurationError(models.ProviderJira, "jira.email is not configured", nil)
	}
	return nil
}

var projectKeyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func (c *Client) resolveProject(override string) (string, error) {
	if err := c.checkServer(); err != nil {
		return "", err
	}
	project := models.FirstNonEmpty(override, c.defaultProject)
	if project == "" {
		return "", models.NewConfigurationError(models.ProviderJira, "project is required", nil)
	}
	// The key is interpolated into JQL unquoted
	if !projectKeyPattern.MatchString(project) {
		return "", models.NewConfigurationError(models.ProviderJira, fmt.Sprintf("invalid project key %q", project), nil)
	}
	return project, nil
}

// search runs a JQL query and returns the issues array
func (c *Client) search(ctx context.Context, jql string) ([]gjson.Result, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))

	body, err := c.http.Get(ctx, "/rest/api/3/search", params)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, models.NewUnexpectedResponse(models.ProviderJira, string(body))
	}
	issues := gjson.GetBytes(body, "issues")
	if !issues.IsArray() {
		return nil, models.NewUnexpectedResponse(models.ProviderJira, string(body))
	}
	return issues.Array(), nil
}

// createIssue posts a new Task and re-reads it, since the create response
// carries only id, key and self
func (c *Client) createIssue(ctx context.Context, project, summary, description string) (gjson.Result, error) {
	fields := map[string]interface{}{
		"project":   map[string]string{"key": project},
		"summary":   summary,
		"issuetype": map[string]string{"name": issueType},
	}
	if description != "" {
		fields["description"] = adfDocument(description)
	}

	body, err := c.http.Post(ctx, "/rest/api/3/issue", nil, map[string]interface{}{"fields": fields})
	if err != nil {
		return gjson.Result{}, err
	}

	created, err := parseObject(body)
	if err != nil {
		return gjson.Result{}, err
	}

	key := models.FirstNonEmpty(created.Get("key").String(), created.Get("id").String())
	if key == "" {
		return gjson.Result{}, models.NewUnexpectedResponse(models.ProviderJira, string(body))
	}
	return c.getIssue(ctx, key)
}

func (c *Client) getIssue(ctx context.Context, key string) (gjson.Result, error) {
	body, err := c.http.Get(ctx, "/rest/api/3/issue/"+url.PathEscape(key), nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return parseObject(body)
}

// adfDocument wraps plain text in a single-paragraph Atlassian document
func adfDocument(text string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": []interface{}{
			map[string]interface{}{
				"type": "paragraph",
				"content": []interface{}{
					map[string]interface{}{
						"type": "text",
						"text": text,
					},
				},
			},
		},
	}
}

// browseURL links to the issue page rather than the REST resource
func (c *Client) browseURL(issue gjson.Result) string {
	if key := issue.Get("key").String(); key != "" {
		return c.serverURL + "/browse/" + key
	}
	if self := issue.Get("self").String(); self != "" {
		return strings.Replace(self, "/rest/api/3/issue/", "/browse/", 1)
	}
	return ""
}

// adfText flattens the text nodes of an Atlassian document
func adfText(value gjson.Result) string {
	if value.Type == gjson.String {
		return value.Str
	}
	var parts []string
	for _, paragraph := range value.Get("content").Array() {
		var line strings.Builder
		for _, node := range paragraph.Get("content").Array() {
			line.WriteString(node.Get("text").String())
		}
		parts = append(parts, line.String())
	}
	return strings.Join(parts, "\n")
}

func parseObject(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, models.NewUnexpectedResponse(models.ProviderJira, string(body))
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return gjson.Result{}, models.NewUnexpectedResponse(models.ProviderJira, string(body))
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

