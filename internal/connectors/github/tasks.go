package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

type stateRequest struct {
	State string `json:"state"`
}

// ListTasks lists issues of repo query.ProjectID as tasks. Status selects the
// issue state (open, closed or all) and defaults to open.
func (c *Client) ListTasks(ctx context.Context, query models.UnifiedTaskQuery) ([]*models.UnifiedTask, error) {
	repo, err := c.resolveRepo(query.ProjectID)
	if err != nil {
		return nil, err
	}

	state, err := normalizeState(models.FirstNonEmpty(query.Status, "open"), true)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("repos/%s/%s/issues?state=%s&per_page=%d", repo.Owner, repo.Name, state, issuesPerPage)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	items, err := parseArray(body)
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.UnifiedTask, 0, len(items))
	for _, item := range items {
		if isPullRequest(item) {
			continue
		}
		tasks = append(tasks, mapTask(repo, item))
	}
	return tasks, nil
}

// CreateTask opens an issue in repo params.ProjectID. GitHub issues are
// always created open, so Status is ignored.
func (c *Client) CreateTask(ctx context.Context, params models.UnifiedCreateTaskParams) (*models.UnifiedTask, error) {
	repo, err := c.resolveRepo(params.ProjectID)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("repos/%s/%s/issues", repo.Owner, repo.Name)
	body, err := c.do(ctx, http.MethodPost, path, issueRequest{Title: params.Title, Body: params.Description})
	if err != nil {
		return nil, err
	}

	item, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	return mapTask(repo, item), nil
}

// MoveTask opens or closes an issue. TaskID is "owner/repo#number", or a bare
// number in the default repo.
func (c *Client) MoveTask(ctx context.Context, params models.UnifiedMoveTaskParams) (*models.UnifiedTask, error) {
	repo, number, err := c.parseTaskID(params.TaskID)
	if err != nil {
		return nil, err
	}

	state, err := normalizeState(params.TargetStatus, false)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("repos/%s/%s/issues/%d", repo.Owner, repo.Name, number)
	body, err := c.do(ctx, http.MethodPatch, path, stateRequest{State: state})
	if err != nil {
		return nil, err
	}

	item, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	return mapTask(repo, item), nil
}

func (c *Client) parseTaskID(taskID string) (Repository, int, error) {
	repoPart, numberPart, found := strings.Cut(taskID, "#")
	if !found {
		repoPart, numberPart = "", taskID
	}

	repo, err := c.resolveRepo(repoPart)
	if err != nil {
		return Repository{}, 0, err
	}

	number, err := strconv.Atoi(numberPart)
	if err != nil || number <= 0 {
		return Repository{}, 0, models.NewConfigurationError(models.ProviderGitHub,
			fmt.Sprintf("invalid task id '%s', expected owner/repo#number", taskID), err)
	}
	return repo, number, nil
}

func normalizeState(status string, allowAll bool) (string, error) {
	state := strings.ToLower(strings.TrimSpace(status))
	switch state {
	case "open", "closed":
		return state, nil
	case "all":
		if allowAll {
			return state, nil
		}
	}
	return "", models.NewConfigurationError(models.ProviderGitHub,
		fmt.Sprintf("unsupported issue state '%s'", status), nil)
}

func mapTask(repo Repository, item gjson.Result) *models.UnifiedTask {
	return &models.UnifiedTask{
		ID:          repo.String() + "#" + issueID(item),
		Title:       stringOr(item.Get("title"), "untitled"),
		Description: stringOr(item.Get("body"), ""),
		Status:      stringOr(item.Get("state"), "unknown"),
		ProjectID:   repo.String(),
		Provider:    models.ProviderGitHub,
		Raw:         json.RawMessage(item.Raw),
	}
}
