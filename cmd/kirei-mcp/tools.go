package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const providerDescription = "Provider: github, linear, trello or jira (default: the configured default_provider)"

// createListIssuesTool returns the list_issues tool definition
func createListIssuesTool() mcp.Tool {
	return mcp.NewTool("list_issues",
		mcp.WithDescription("List open issues, cards or tickets from a tracker"),
		mcp.WithString("provider", mcp.Description(providerDescription)),
		mcp.WithString("workspace", mcp.Description("Workspace scope (Linear team id)")),
		mcp.WithString("repo", mcp.Description("GitHub owner/repo, Trello board id or Jira project key")),
		mcp.WithString("search", mcp.Description("Search text")),
	)
}

// createCreateIssueTool returns the create_issue tool definition
func createCreateIssueTool() mcp.Tool {
	return mcp.NewTool("create_issue",
		mcp.WithDescription("Create an issue, card or ticket"),
		mcp.WithString("provider", mcp.Description(providerDescription)),
		mcp.WithString("workspace", mcp.Description("Workspace scope (Linear team id)")),
		mcp.WithString("repo", mcp.Description("GitHub owner/repo, Trello board id or Jira project key")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title")),
		mcp.WithString("body", mcp.Description("Body or description")),
	)
}

// createListProjectsTool returns the list_projects tool definition
func createListProjectsTool() mcp.Tool {
	return mcp.NewTool("list_projects",
		mcp.WithDescription("List repositories (GitHub), projects (Linear, Jira) or boards (Trello)"),
		mcp.WithString("provider", mcp.Description(providerDescription)),
		mcp.WithString("workspace", mcp.Description("GitHub organization or Linear team id")),
		mcp.WithString("search", mcp.Description("Case-insensitive name filter")),
	)
}

// createListTasksTool returns the list_tasks tool definition
func createListTasksTool() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription("List the tasks of a project"),
		mcp.WithString("provider", mcp.Description(providerDescription)),
		mcp.WithString("project_id", mcp.Description("GitHub owner/repo, Linear project id, Trello board id or Jira project key")),
		mcp.WithString("status", mcp.Description("Status filter (GitHub: open, closed, all; Trello: list name; Jira: status name)")),
	)
}

// createCreateTaskTool returns the create_task tool definition
func createCreateTaskTool() mcp.Tool {
	return mcp.NewTool("create_task",
		mcp.WithDescription("Create a task in a project"),
		mcp.WithString("provider", mcp.Description(providerDescription)),
		mcp.WithString("project_id", mcp.Description("Project id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("status", mcp.Description("Initial status (Trello list name)")),
	)
}

// createMoveTaskTool returns the move_task tool definition
func createMoveTaskTool() mcp.Tool {
	return mcp.NewTool("move_task",
		mcp.WithDescription("Move a task to another status (GitHub open/closed, Trello list, Jira transition)"),
		mcp.WithString("provider", mcp.Description(providerDescription)),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("GitHub owner/repo#N, Trello card id or Jira issue key")),
		mcp.WithString("target_status", mcp.Required(), mcp.Description("Target status name")),
	)
}
