package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

type repoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListProjects lists repositories: the organization's when query.Workspace is
// set, otherwise the authenticated user's, most recently updated first
func (c *Client) ListProjects(ctx context.Context, query models.UnifiedProjectQuery) ([]*models.UnifiedProject, error) {
	path := fmt.Sprintf("user/repos?per_page=%d&sort=updated", reposPerPage)
	if query.Workspace != "" {
		path = fmt.Sprintf("orgs/%s/repos?per_page=%d&sort=updated", url.PathEscape(query.Workspace), reposPerPage)
	}

	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	items, err := parseArray(body)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(query.Search)
	projects := make([]*models.UnifiedProject, 0, len(items))
	for _, item := range items {
		project := mapProject(item)
		if search != "" && !strings.Contains(strings.ToLower(project.Name), search) {
			continue
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// CreateProject creates a repository under the organization in
// params.Workspace, or under the authenticated user
func (c *Client) CreateProject(ctx context.Context, params models.UnifiedCreateProjectParams) (*models.UnifiedProject, error) {
	path := "user/repos"
	if params.Workspace != "" {
		path = fmt.Sprintf("orgs/%s/repos", url.PathEscape(params.Workspace))
	}

	body, err := c.do(ctx, http.MethodPost, path, repoRequest{Name: params.Name, Description: params.Description})
	if err != nil {
		return nil, err
	}

	item, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	return mapProject(item), nil
}

func mapProject(item gjson.Result) *models.UnifiedProject {
	return &models.UnifiedProject{
		ID:          stringOr(item.Get("full_name"), item.Get("id").String()),
		Name:        stringOr(item.Get("name"), "unnamed"),
		Description: stringOr(item.Get("description"), ""),
		Provider:    models.ProviderGitHub,
		Parent:      stringOr(item.Get("owner.login"), ""),
		Raw:         json.RawMessage(item.Raw),
	}
}
