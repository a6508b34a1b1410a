package linear

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

const listTasksQuery = `query($filter: IssueFilter) {
	issues(first: 50, filter: $filter) {
		nodes {` + issueFields + `
		}
	}
}`

// ListTasks lists issues of project query.ProjectID. Status matches the
// workflow state name; without it completed issues are excluded.
func (c *Client) ListTasks(ctx context.Context, query models.UnifiedTaskQuery) ([]*models.UnifiedTask, error) {
	filter := map[string]interface{}{}
	if query.ProjectID != "" {
		filter["project"] = map[string]interface{}{"id": map[string]interface{}{"eq": query.ProjectID}}
	}
	if query.Status != "" {
		filter["state"] = map[string]interface{}{"name": map[string]interface{}{"eqIgnoreCase": query.Status}}
	} else {
		filter["state"] = map[string]interface{}{"type": map[string]interface{}{"neq": "completed"}}
	}

	nodes, err := c.nodes(ctx, listTasksQuery, map[string]interface{}{"filter": filter}, "data.issues.nodes")
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.UnifiedTask, 0, len(nodes))
	for _, node := range nodes {
		tasks = append(tasks, mapTask(node))
	}
	return tasks, nil
}

// CreateTask creates an issue inside project params.ProjectID
func (c *Client) CreateTask(ctx context.Context, params models.UnifiedCreateTaskParams) (*models.UnifiedTask, error) {
	if params.ProjectID == "" {
		return nil, models.NewConfigurationError(models.ProviderLinear, "a project id is required to create a task", nil)
	}

	input := map[string]interface{}{
		"title":     params.Title,
		"projectId": params.ProjectID,
	}
	if params.Description != "" {
		input["description"] = params.Description
	}
	if c.defaultWorkspace != "" {
		input["teamId"] = c.defaultWorkspace
	}

	issue, err := c.query(ctx, createIssueMutation, map[string]interface{}{"input": input}, "data.issueCreate.issue")
	if err != nil {
		return nil, err
	}
	return mapTask(issue), nil
}

// MoveTask is not supported: Linear moves issues by workflow state id, which
// this client does not resolve
func (c *Client) MoveTask(ctx context.Context, params models.UnifiedMoveTaskParams) (*models.UnifiedTask, error) {
	return nil, models.NewNotImplemented(models.ProviderLinear, "moving tasks")
}

func mapTask(node gjson.Result) *models.UnifiedTask {
	return &models.UnifiedTask{
		ID:          stringOr(node.Get("identifier"), stringOr(node.Get("id"), "")),
		Title:       stringOr(node.Get("title"), "untitled"),
		Description: stringOr(node.Get("description"), ""),
		Status:      stringOr(node.Get("state.name"), "unknown"),
		ProjectID:   stringOr(node.Get("project.id"), ""),
		Provider:    models.ProviderLinear,
		Raw:         raw(node),
	}
}
