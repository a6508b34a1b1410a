package jira

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

// ListTasks lists issues of project query.ProjectID, either those not Done or,
// with Status, those in that status
func (c *Client) ListTasks(ctx context.Context, query models.UnifiedTaskQuery) ([]*models.UnifiedTask, error) {
	project, err := c.resolveProject(query.ProjectID)
	if err != nil {
		return nil, err
	}

	jql := openIssuesJQL(project)
	if query.Status != "" {
		jql = fmt.Sprintf("project = %s AND status = \"%s\" ORDER BY created DESC", project, escapeJQL(query.Status))
	}

	items, err := c.search(ctx, jql)
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.UnifiedTask, 0, len(items))
	for _, item := range items {
		tasks = append(tasks, mapTask(item, project))
	}
	return tasks, nil
}

// CreateTask creates a Task in project params.ProjectID. New issues start in
// the workflow's initial status, so Status is ignored.
func (c *Client) CreateTask(ctx context.Context, params models.UnifiedCreateTaskParams) (*models.UnifiedTask, error) {
	project, err := c.resolveProject(params.ProjectID)
	if err != nil {
		return nil, err
	}

	issue, err := c.createIssue(ctx, project, params.Title, params.Description)
	if err != nil {
		return nil, err
	}
	return mapTask(issue, project), nil
}

// MoveTask applies the transition whose name or target status matches
// params.TargetStatus
func (c *Client) MoveTask(ctx context.Context, params models.UnifiedMoveTaskParams) (*models.UnifiedTask, error) {
	if err := c.checkServer(); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/rest/api/3/issue/%s/transitions", url.PathEscape(params.TaskID))
	body, err := c.http.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	transitions := gjson.GetBytes(body, "transitions")
	if !transitions.IsArray() {
		return nil, models.NewUnexpectedResponse(models.ProviderJira, string(body))
	}

	transitionID := ""
	for _, transition := range transitions.Array() {
		if strings.EqualFold(transition.Get("to.name").String(), params.TargetStatus) ||
			strings.EqualFold(transition.Get("name").String(), params.TargetStatus) {
			transitionID = transition.Get("id").String()
			break
		}
	}
	if transitionID == "" {
		return nil, models.NewConfigurationError(models.ProviderJira,
			fmt.Sprintf("no transition to '%s' available for %s", params.TargetStatus, params.TaskID), nil)
	}

	payload := map[string]interface{}{"transition": map[string]string{"id": transitionID}}
	if _, err := c.http.Post(ctx, path, nil, payload); err != nil {
		return nil, err
	}

	issue, err := c.getIssue(ctx, params.TaskID)
	if err != nil {
		return nil, err
	}
	return mapTask(issue, issue.Get("fields.project.key").String()), nil
}

func escapeJQL(value string) string {
	return strings.ReplaceAll(value, `"`, `\"`)
}

func mapTask(item gjson.Result, project string) *models.UnifiedTask {
	return &models.UnifiedTask{
		ID:          models.FirstNonEmpty(stringOr(item.Get("key"), ""), item.Get("id").String()),
		Title:       stringOr(item.Get("fields.summary"), "untitled"),
		Description: adfText(item.Get("fields.description")),
		Status:      stringOr(item.Get("fields.status.name"), "unknown"),
		ProjectID:   models.FirstNonEmpty(stringOr(item.Get("fields.project.key"), ""), project),
		Provider:    models.ProviderJira,
		Raw:         raw(item),
	}
}
