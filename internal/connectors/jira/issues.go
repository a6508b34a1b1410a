package jira

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

// openIssuesJQL selects the project's unfinished issues, newest first
func openIssuesJQL(project string) string {
	return fmt.Sprintf("project = %s AND status != Done ORDER BY created DESC", project)
}

// List searches the project's issues that are not Done
func (c *Client) List(ctx context.Context, query models.UnifiedListQuery) ([]*models.UnifiedIssue, error) {
	project, err := c.resolveProject(models.FirstNonEmpty(query.Repo, query.Workspace))
	if err != nil {
		return nil, err
	}

	items, err := c.search(ctx, openIssuesJQL(project))
	if err != nil {
		return nil, err
	}

	issues := make([]*models.UnifiedIssue, 0, len(items))
	for _, item := range items {
		issues = append(issues, c.mapIssue(item))
	}
	return issues, nil
}

// Create creates a Task in the project. The description, when given, is sent
// as an Atlassian document.
func (c *Client) Create(ctx context.Context, params models.UnifiedCreateParams) (*models.UnifiedIssue, error) {
	project, err := c.resolveProject(models.FirstNonEmpty(params.Repo, params.Workspace))
	if err != nil {
		return nil, err
	}

	issue, err := c.createIssue(ctx, project, params.Title, params.Body)
	if err != nil {
		return nil, err
	}
	return c.mapIssue(issue), nil
}

// mapIssue is the single issue projection shared by List and Create
func (c *Client) mapIssue(item gjson.Result) *models.UnifiedIssue {
	return &models.UnifiedIssue{
		ID:         models.FirstNonEmpty(stringOr(item.Get("key"), ""), item.Get("id").String()),
		Title:      stringOr(item.Get("fields.summary"), "untitled"),
		State:      stringOr(item.Get("fields.status.name"), "unknown"),
		URL:        c.browseURL(item),
		Provider:   models.ProviderJira,
		RawPayload: raw(item),
	}
}
