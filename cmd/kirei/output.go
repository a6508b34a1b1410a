package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/pretty"

	"github.com/ternarybob/kirei/internal/models"
)

var rawOptions = &pretty.Options{Width: 80, Prefix: "    ", Indent: "  "}

func printRaw(w io.Writer, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	w.Write(pretty.PrettyOptions(raw, rawOptions))
}

func printIssues(w io.Writer, issues []*models.UnifiedIssue, raw bool) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues returned.")
		return
	}
	for _, issue := range issues {
		fmt.Fprintln(w, issue.DisplaySummary())
		if raw {
			printRaw(w, issue.RawPayload)
		}
	}
}

func printProjects(w io.Writer, projects []*models.UnifiedProject, raw bool) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects returned.")
		return
	}
	for _, project := range projects {
		fmt.Fprintln(w, project.DisplaySummary())
		if raw {
			printRaw(w, project.Raw)
		}
	}
}

func printTasks(w io.Writer, tasks []*models.UnifiedTask, raw bool) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks returned.")
		return
	}
	for _, task := range tasks {
		fmt.Fprintln(w, task.DisplaySummary())
		if raw {
			printRaw(w, task.Raw)
		}
	}
}

// redact keeps the last four characters of long secrets
func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
