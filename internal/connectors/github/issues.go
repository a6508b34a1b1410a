package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

type issueRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// List returns the open issues of the query's repo (or the default repo).
// Pull requests share the issues endpoint and are dropped.
func (c *Client) List(ctx context.Context, query models.UnifiedListQuery) ([]*models.UnifiedIssue, error) {
	repo, err := c.resolveRepo(query.Repo)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("repos/%s/%s/issues?state=open&per_page=%d", repo.Owner, repo.Name, issuesPerPage)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	items, err := parseArray(body)
	if err != nil {
		return nil, err
	}

	issues := make([]*models.UnifiedIssue, 0, len(items))
	for _, item := range items {
		if isPullRequest(item) {
			continue
		}
		issues = append(issues, mapIssue(item))
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("repo", repo.String()).
			Int("count", len(issues)).
			Msg("Listed GitHub issues")
	}

	return issues, nil
}

// Create opens an issue in the params' repo (or the default repo)
func (c *Client) Create(ctx context.Context, params models.UnifiedCreateParams) (*models.UnifiedIssue, error) {
	repo, err := c.resolveRepo(params.Repo)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("repos/%s/%s/issues", repo.Owner, repo.Name)
	body, err := c.do(ctx, http.MethodPost, path, issueRequest{Title: params.Title, Body: params.Body})
	if err != nil {
		return nil, err
	}

	item, err := parseObject(body)
	if err != nil {
		return nil, err
	}

	return mapIssue(item), nil
}

// mapIssue is the single issue projection shared by List and Create
func mapIssue(item gjson.Result) *models.UnifiedIssue {
	return &models.UnifiedIssue{
		ID:         issueID(item),
		Title:      stringOr(item.Get("title"), "untitled"),
		State:      stringOr(item.Get("state"), "unknown"),
		URL:        stringOr(item.Get("html_url"), ""),
		Provider:   models.ProviderGitHub,
		RawPayload: json.RawMessage(item.Raw),
	}
}

// issueID prefers the repo-scoped number over the global id
func issueID(item gjson.Result) string {
	if number := item.Get("number"); number.Type == gjson.Number {
		return strconv.FormatInt(number.Int(), 10)
	}
	if id := item.Get("id"); id.Exists() {
		return id.String()
	}
	return ""
}

func isPullRequest(item gjson.Result) bool {
	return item.Get("pull_request").Exists()
}

func stringOr(value gjson.Result, fallback string) string {
	if value.Type == gjson.String {
		return value.Str
	}
	return fallback
}

func parseArray(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, models.NewUnexpectedResponse(models.ProviderGitHub, string(body))
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, models.NewUnexpectedResponse(models.ProviderGitHub, string(body))
	}
	return parsed.Array(), nil
}

func parseObject(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, models.NewUnexpectedResponse(models.ProviderGitHub, string(body))
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return gjson.Result{}, models.NewUnexpectedResponse(models.ProviderGitHub, string(body))
	}
	return parsed, nil
}
