package trello

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

// ListProjects lists the boards of the authenticated member
func (c *Client) ListProjects(ctx context.Context, query models.UnifiedProjectQuery) ([]*models.UnifiedProject, error) {
	if err := c.checkAPIKey(); err != nil {
		return nil, err
	}

	boards, err := c.getArray(ctx, "/members/me/boards", nil)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(query.Search)
	projects := make([]*models.UnifiedProject, 0, len(boards))
	for _, board := range boards {
		if query.Workspace != "" && board.Get("idOrganization").String() != query.Workspace {
			continue
		}
		project := mapBoard(board)
		if search != "" && !strings.Contains(strings.ToLower(project.Name), search) {
			continue
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// CreateProject creates a board, inside the workspace (organization) when given
func (c *Client) CreateProject(ctx context.Context, params models.UnifiedCreateProjectParams) (*models.UnifiedProject, error) {
	if err := c.checkAPIKey(); err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("name", params.Name)
	if params.Description != "" {
		values.Set("desc", params.Description)
	}
	if params.Workspace != "" {
		values.Set("idOrganization", params.Workspace)
	}

	board, err := c.sendObject(ctx, http.MethodPost, "/boards", values)
	if err != nil {
		return nil, err
	}
	return mapBoard(board), nil
}

func mapBoard(board gjson.Result) *models.UnifiedProject {
	return &models.UnifiedProject{
		ID:          stringOr(board.Get("id"), ""),
		Name:        stringOr(board.Get("name"), "untitled"),
		Description: stringOr(board.Get("desc"), ""),
		Provider:    models.ProviderTrello,
		Parent:      stringOr(board.Get("idOrganization"), ""),
		Raw:         raw(board),
	}
}
