package jira

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

// ListProjects lists the projects visible to the account
func (c *Client) ListProjects(ctx context.Context, query models.UnifiedProjectQuery) ([]*models.UnifiedProject, error) {
	if err := c.checkServer(); err != nil {
		return nil, err
	}

	body, err := c.http.Get(ctx, "/rest/api/3/project", nil)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
		return nil, models.NewUnexpectedResponse(models.ProviderJira, string(body))
	}

	search := strings.ToLower(query.Search)
	var projects []*models.UnifiedProject
	gjson.ParseBytes(body).ForEach(func(_, item gjson.Result) bool {
		project := mapProject(item)
		if search == "" ||
			strings.Contains(strings.ToLower(project.Name), search) ||
			strings.Contains(strings.ToLower(project.ID), search) {
			projects = append(projects, project)
		}
		return true
	})
	return projects, nil
}

// CreateProject is not supported: Jira project creation needs admin-only
// fields (lead account, template) that the unified parameters do not carry
func (c *Client) CreateProject(ctx context.Context, params models.UnifiedCreateProjectParams) (*models.UnifiedProject, error) {
	return nil, models.NewNotImplemented(models.ProviderJira, "creating projects")
}

func mapProject(item gjson.Result) *models.UnifiedProject {
	return &models.UnifiedProject{
		ID:          models.FirstNonEmpty(stringOr(item.Get("key"), ""), item.Get("id").String()),
		Name:        stringOr(item.Get("name"), "unnamed"),
		Description: stringOr(item.Get("description"), ""),
		Provider:    models.ProviderJira,
		Parent:      stringOr(item.Get("projectCategory.name"), ""),
		Raw:         raw(item),
	}
}
