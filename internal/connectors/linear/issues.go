package linear

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/ternarybob/kirei/internal/models"
)

const issueFields = `
			id
			identifier
			title
			description
			url
			state {
				name
				type
			}
			project {
				id
			}`

const listIssuesQuery = `query {
	issues(first: 20, filter: { state: { type: { neq: "completed" } } }) {
		nodes {` + issueFields + `
		}
	}
}`

const listTeamIssuesQuery = `query($workspaceId: ID) {
	issues(first: 20, filter: { state: { type: { neq: "completed" } }, team: { id: { eq: $workspaceId } } }) {
		nodes {` + issueFields + `
		}
	}
}`

const createIssueMutation = `mutation IssueCreate($input: IssueCreateInput!) {
	issueCreate(input: $input) {
		success
		issue {` + issueFields + `
		}
	}
}`

// List returns issues whose state type is not "completed", scoped to the
// workspace (team) when one is known
func (c *Client) List(ctx context.Context, query models.UnifiedListQuery) ([]*models.UnifiedIssue, error) {
	workspace := models.FirstNonEmpty(query.Workspace, c.defaultWorkspace)

	document := listIssuesQuery
	var variables map[string]interface{}
	if workspace != "" {
		document = listTeamIssuesQuery
		variables = map[string]interface{}{"workspaceId": workspace}
	}

	nodes, err := c.nodes(ctx, document, variables, "data.issues.nodes")
	if err != nil {
		return nil, err
	}

	issues := make([]*models.UnifiedIssue, 0, len(nodes))
	for _, node := range nodes {
		issues = append(issues, mapIssue(node))
	}
	return issues, nil
}

// Create issues the issueCreate mutation with the workspace as teamId
func (c *Client) Create(ctx context.Context, params models.UnifiedCreateParams) (*models.UnifiedIssue, error) {
	input := map[string]interface{}{
		"title": params.Title,
	}
	if params.Body != "" {
		input["description"] = params.Body
	}
	if workspace := models.FirstNonEmpty(params.Workspace, c.defaultWorkspace); workspace != "" {
		input["teamId"] = workspace
	}

	issue, err := c.query(ctx, createIssueMutation, map[string]interface{}{"input": input}, "data.issueCreate.issue")
	if err != nil {
		return nil, err
	}
	return mapIssue(issue), nil
}

func mapIssue(node gjson.Result) *models.UnifiedIssue {
	return &models.UnifiedIssue{
		ID:         stringOr(node.Get("id"), ""),
		Title:      stringOr(node.Get("title"), "untitled"),
		State:      stringOr(node.Get("state.name"), "unknown"),
		URL:        stringOr(node.Get("url"), ""),
		Provider:   models.ProviderLinear,
		RawPayload: raw(node),
	}
}
