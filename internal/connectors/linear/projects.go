package linear

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

const projectFields = `
			id
			name
			description
			url
			teams {
				nodes {
					id
					key
				}
			}`

const listProjectsQuery = `query {
	projects(first: 50) {
		nodes {` + projectFields + `
		}
	}
}`

const createProjectMutation = `mutation ProjectCreate($input: ProjectCreateInput!) {
	projectCreate(input: $input) {
		success
		project {` + projectFields + `
		}
	}
}`

// ListProjects lists projects, keeping those owned by the workspace (team)
// when one is given and matching Search case-insensitively
func (c *Client) ListProjects(ctx context.Context, query models.UnifiedProjectQuery) ([]*models.UnifiedProject, error) {
	nodes, err := c.nodes(ctx, listProjectsQuery, nil, "data.projects.nodes")
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(query.Search)
	projects := make([]*models.UnifiedProject, 0, len(nodes))
	for _, node := range nodes {
		if query.Workspace != "" && !ownedByTeam(node, query.Workspace) {
			continue
		}
		project := mapProject(node)
		if search != "" && !strings.Contains(strings.ToLower(project.Name), search) {
			continue
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// CreateProject creates a project owned by the workspace (team), which Linear requires
func (c *Client) CreateProject(ctx context.Context, params models.UnifiedCreateProjectParams) (*models.UnifiedProject, error) {
	workspace := models.FirstNonEmpty(params.Workspace, c.defaultWorkspace)
	if workspace == "" {
		return nil, models.NewConfigurationError(models.ProviderLinear, "a workspace (team id) is required to create a project", nil)
	}

	input := map[string]interface{}{
		"name":    params.Name,
		"teamIds": []string{workspace},
	}
	if params.Description != "" {
		input["description"] = params.Description
	}

	project, err := c.query(ctx, createProjectMutation, map[string]interface{}{"input": input}, "data.projectCreate.project")
	if err != nil {
		return nil, err
	}
	return mapProject(project), nil
}

func ownedByTeam(node gjson.Result, teamID string) bool {
	for _, team := range node.Get("teams.nodes").Array() {
		if team.Get("id").String() == teamID || team.Get("key").String() == teamID {
			return true
		}
	}
	return false
}

func mapProject(node gjson.Result) *models.UnifiedProject {
	return &models.UnifiedProject{
		ID:          stringOr(node.Get("id"), ""),
		Name:        stringOr(node.Get("name"), "unnamed"),
		Description: stringOr(node.Get("description"), ""),
		Provider:    models.ProviderLinear,
		Parent:      stringOr(node.Get("teams.nodes.0.key"), ""),
		Raw:         raw(node),
	}
}
