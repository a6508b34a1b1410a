package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/kirei/internal/models"
)

// formatIssues formats an issue list as markdown
func formatIssues(issues []*models.UnifiedIssue) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Issues (%d)\n\n", len(issues)))

	if len(issues) == 0 {
		sb.WriteString("No issues returned.\n")
		return sb.String()
	}

	for i, issue := range issues {
		sb.WriteString(fmt.Sprintf("%d. **%s** `%s` [%s] (%s)\n", i+1, issue.Title, issue.ID, issue.State, issue.Provider.DisplayName()))
		if issue.URL != "" {
			sb.WriteString(fmt.Sprintf("   URL: %s\n", issue.URL))
		}
		if list := issue.Extra["list"]; list != "" {
			sb.WriteString(fmt.Sprintf("   List: %s\n", list))
		}
	}

	return sb.String()
}

// formatIssue formats one created issue as markdown
func formatIssue(issue *models.UnifiedIssue) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", issue.Title))
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", issue.ID))
	sb.WriteString(fmt.Sprintf("**Provider:** %s\n", issue.Provider.DisplayName()))
	sb.WriteString(fmt.Sprintf("**State:** %s\n", issue.State))
	if issue.URL != "" {
		sb.WriteString(fmt.Sprintf("**URL:** %s\n", issue.URL))
	}
	return sb.String()
}

// formatProjects formats a project list as markdown
func formatProjects(projects []*models.UnifiedProject) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Projects (%d)\n\n", len(projects)))

	if len(projects) == 0 {
		sb.WriteString("No projects returned.\n")
		return sb.String()
	}

	for i, project := range projects {
		sb.WriteString(fmt.Sprintf("%d. **%s** `%s` (%s)\n", i+1, project.Name, project.ID, project.Provider.DisplayName()))
		if project.Parent != "" {
			sb.WriteString(fmt.Sprintf("   Parent: %s\n", project.Parent))
		}
		if project.Description != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", project.Description))
		}
	}

	return sb.String()
}

// formatTasks formats a task list as markdown
func formatTasks(tasks []*models.UnifiedTask) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Tasks (%d)\n\n", len(tasks)))

	if len(tasks) == 0 {
		sb.WriteString("No tasks returned.\n")
		return sb.String()
	}

	for i, task := range tasks {
		sb.WriteString(fmt.Sprintf("%d. **%s** `%s` [%s]\n", i+1, task.Title, task.ID, task.Status))
	}

	return sb.String()
}

// formatTask formats one created or moved task as markdown
func formatTask(verb string, task *models.UnifiedTask) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s task `%s` on %s\n\n", verb, task.ID, task.Provider.DisplayName()))
	sb.WriteString(fmt.Sprintf("**Title:** %s\n", task.Title))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", task.Status))
	if task.ProjectID != "" {
		sb.WriteString(fmt.Sprintf("**Project:** %s\n", task.ProjectID))
	}
	return sb.String()
}
