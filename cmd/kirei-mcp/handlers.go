package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kirei/internal/interfaces"
	"github.com/ternarybob/kirei/internal/models"
)

func textResult(markdown string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(markdown),
		},
	}
}

func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf(format, args...)),
		},
		IsError: true,
	}
}

// providerArg parses the optional provider argument; empty selects the default
func providerArg(request mcp.CallToolRequest) (models.ProviderID, error) {
	text := request.GetString("provider", "")
	if text == "" {
		return "", nil
	}
	return models.ParseProvider(text)
}

// handleListIssues implements the list_issues tool
func handleListIssues(svc interfaces.UnifiedService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		provider, err := providerArg(request)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		issues, err := svc.List(ctx, provider, models.UnifiedListQuery{
			Workspace: request.GetString("workspace", ""),
			Repo:      request.GetString("repo", ""),
			Search:    request.GetString("search", ""),
		})
		if err != nil {
			logger.Error().Err(err).Str("provider", string(provider)).Msg("list_issues failed")
			return errorResult("List error: %v", err), nil
		}

		return textResult(formatIssues(issues)), nil
	}
}

// handleCreateIssue implements the create_issue tool
func handleCreateIssue(svc interfaces.UnifiedService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := request.RequireString("title")
		if err != nil || title == "" {
			return errorResult("Error: title parameter is required"), nil
		}

		provider, err := providerArg(request)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		issue, err := svc.Create(ctx, provider, models.UnifiedCreateParams{
			Workspace: request.GetString("workspace", ""),
			Repo:      request.GetString("repo", ""),
			Title:     title,
			Body:      request.GetString("body", ""),
		})
		if err != nil {
			logger.Error().Err(err).Str("provider", string(provider)).Msg("create_issue failed")
			return errorResult("Create error: %v", err), nil
		}

		return textResult(formatIssue(issue)), nil
	}
}

// handleListProjects implements the list_projects tool
func handleListProjects(svc interfaces.UnifiedService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		provider, err := providerArg(request)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		projects, err := svc.ListProjects(ctx, provider, models.UnifiedProjectQuery{
			Workspace: request.GetString("workspace", ""),
			Search:    request.GetString("search", ""),
		})
		if err != nil {
			logger.Error().Err(err).Str("provider", string(provider)).Msg("list_projects failed")
			return errorResult("List error: %v", err), nil
		}

		return textResult(formatProjects(projects)), nil
	}
}

// handleListTasks implements the list_tasks tool
func handleListTasks(svc interfaces.UnifiedService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		provider, err := providerArg(request)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		tasks, err := svc.ListTasks(ctx, provider, models.UnifiedTaskQuery{
			ProjectID: request.GetString("project_id", ""),
			Status:    request.GetString("status", ""),
		})
		if err != nil {
			logger.Error().Err(err).Str("provider", string(provider)).Msg("list_tasks failed")
			return errorResult("List error: %v", err), nil
		}

		return textResult(formatTasks(tasks)), nil
	}
}

// handleCreateTask implements the create_task tool
func handleCreateTask(svc interfaces.UnifiedService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := request.RequireString("title")
		if err != nil || title == "" {
			return errorResult("Error: title parameter is required"), nil
		}

		provider, err := providerArg(request)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		task, err := svc.CreateTask(ctx, provider, models.UnifiedCreateTaskParams{
			ProjectID:   request.GetString("project_id", ""),
			Title:       title,
			Description: request.GetString("description", ""),
			Status:      request.GetString("status", ""),
		})
		if err != nil {
			logger.Error().Err(err).Str("provider", string(provider)).Msg("create_task failed")
			return errorResult("Create error: %v", err), nil
		}

		return textResult(formatTask("Created", task)), nil
	}
}

// handleMoveTask implements the move_task tool
func handleMoveTask(svc interfaces.UnifiedService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskID, err := request.RequireString("task_id")
		if err != nil || taskID == "" {
			return errorResult("Error: task_id parameter is required"), nil
		}
		target, err := request.RequireString("target_status")
		if err != nil || target == "" {
			return errorResult("Error: target_status parameter is required"), nil
		}

		provider, err := providerArg(request)
		if err != nil {
			return errorResult("Error: %v", err), nil
		}

		task, err := svc.MoveTask(ctx, provider, models.UnifiedMoveTaskParams{
			TaskID:       taskID,
			TargetStatus: target,
		})
		if err != nil {
			logger.Error().Err(err).Str("provider", string(provider)).Str("task_id", taskID).Msg("move_task failed")
			return errorResult("Move error: %v", err), nil
		}

		return textResult(formatTask("Moved", task)), nil
	}
}
