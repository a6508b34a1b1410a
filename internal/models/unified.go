package models

import (
	"encoding/json"
	"fmt"
)

// UnifiedIssue is the provider-neutral projection of an issue, card or ticket.
// RawPayload holds the provider's JSON for the entity byte-for-byte.
type UnifiedIssue struct {
	ID         string            `json:"id"`              // Provider-native identifier (GitHub number, Jira key, ...)
	Title      string            `json:"title"`
	State      string            `json:"state"`           // Provider vocabulary, not normalized
	URL        string            `json:"url,omitempty"`   // Empty when the provider returned none
	Provider   ProviderID        `json:"provider"`
	Extra      map[string]string `json:"extra,omitempty"` // Auxiliary display context (e.g. Trello list name)
	RawPayload json.RawMessage   `json:"raw_payload"`
}

// DisplaySummary renders the one-line form used by the CLI
func (i *UnifiedIssue) DisplaySummary() string {
	url := i.URL
	if url == "" {
		url = "no-url"
	}
	return fmt.Sprintf("%s [%s] %s (%s)", i.Provider.DisplayName(), i.State, i.Title, url)
}

// UnifiedProject is a repository, team project, board or Jira project
type UnifiedProject struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Provider    ProviderID      `json:"provider"`
	Parent      string          `json:"parent,omitempty"` // Owning scope (repo owner, organization, workspace)
	Raw         json.RawMessage `json:"raw"`
}

// DisplaySummary renders the one-line form used by the CLI
func (p *UnifiedProject) DisplaySummary() string {
	if p.Parent != "" {
		return fmt.Sprintf("%s %s (%s) [%s]", p.Provider.DisplayName(), p.Name, p.ID, p.Parent)
	}
	return fmt.Sprintf("%s %s (%s)", p.Provider.DisplayName(), p.Name, p.ID)
}

// UnifiedTask is a work item addressed through its owning project
type UnifiedTask struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status"`
	ProjectID   string          `json:"project_id"`
	Provider    ProviderID      `json:"provider"`
	Raw         json.RawMessage `json:"raw"`
}

// DisplaySummary renders the one-line form used by the CLI
func (t *UnifiedTask) DisplaySummary() string {
	return fmt.Sprintf("%s %s [%s] %s", t.Provider.DisplayName(), t.ID, t.Status, t.Title)
}

// UnifiedListQuery scopes an issue listing
type UnifiedListQuery struct {
	Workspace string `json:"workspace,omitempty"`
	Repo      string `json:"repo,omitempty"`
	Search    string `json:"search,omitempty"`
}

// UnifiedCreateParams describes a new issue
type UnifiedCreateParams struct {
	Workspace string `json:"workspace,omitempty"`
	Repo      string `json:"repo,omitempty"`
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body,omitempty"`
}

// UnifiedProjectQuery scopes a project listing
type UnifiedProjectQuery struct {
	Workspace string `json:"workspace,omitempty"`
	Repo      string `json:"repo,omitempty"`
	Search    string `json:"search,omitempty"` // Case-insensitive name filter
}

// UnifiedCreateProjectParams describes a new project
type UnifiedCreateProjectParams struct {
	Workspace   string `json:"workspace,omitempty"`
	Repo        string `json:"repo,omitempty"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// UnifiedTaskQuery scopes a task listing
type UnifiedTaskQuery struct {
	ProjectID string `json:"project_id,omitempty"`
	Status    string `json:"status,omitempty"`
}

// UnifiedCreateTaskParams describes a new task
type UnifiedCreateTaskParams struct {
	ProjectID   string `json:"project_id"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// UnifiedMoveTaskParams moves a task to another status
type UnifiedMoveTaskParams struct {
	TaskID       string `json:"task_id" validate:"required"`
	TargetStatus string `json:"target_status" validate:"required"`
}

// ScopeDefaults carries the per-provider defaults used when a query omits its scope
type ScopeDefaults struct {
	Repo          string // GitHub "owner/repo"
	Workspace     string // Linear team/workspace id
	Board         string // Trello board id
	Project       string // Jira project key
	TrelloAPIKey  string
	JiraServerURL string
	JiraEmail     string
}

// FirstNonEmpty returns the first non-blank value, used for override-then-default scope resolution
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
