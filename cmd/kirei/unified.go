package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/kirei/internal/models"
)

// unifiedFlags is the shared flag set of the unified subcommands
type unifiedFlags struct {
	provider    string
	workspace   string
	repo        string
	search      string
	title       string
	body        string
	name        string
	description string
	project     string
	status      string
	task        string
	raw         bool
}

func (f *unifiedFlags) providerID() (models.ProviderID, error) {
	if f.provider == "" {
		return "", nil
	}
	return models.ParseProvider(f.provider)
}

func newUnifiedCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unified",
		Short: "Run issue, project and task operations against any provider",
		Long:  `Unified operations. --provider selects github, linear, trello or jira; without it the configured default_provider is used.`,
	}

	cmd.AddCommand(
		newUnifiedListCmd(c),
		newUnifiedCreateCmd(c),
		newUnifiedProjectsCmd(c),
		newUnifiedCreateProjectCmd(c),
		newUnifiedTasksCmd(c),
		newUnifiedCreateTaskCmd(c),
		newUnifiedMoveTaskCmd(c),
	)
	return cmd
}

func addProviderFlags(cmd *cobra.Command, f *unifiedFlags) {
	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "Provider: github, linear, trello, jira")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "Also print the provider's raw JSON for each record")
}

func addScopeFlags(cmd *cobra.Command, f *unifiedFlags) {
	cmd.Flags().StringVar(&f.workspace, "workspace", "", "Workspace scope (Linear team id, GitHub organization)")
	cmd.Flags().StringVar(&f.repo, "repo", "", "Repository, board or project scope (GitHub owner/repo, Trello board id, Jira project key)")
}

func newUnifiedListCmd(c *cli) *cobra.Command {
	f := &unifiedFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := f.providerID()
			if err != nil {
				return err
			}
			issues, err := c.unified.List(cmd.Context(), provider, models.UnifiedListQuery{
				Workspace: f.workspace,
				Repo:      f.repo,
				Search:    f.search,
			})
			if err != nil {
				return err
			}
			printIssues(cmd.OutOrStdout(), issues, f.raw)
			return nil
		},
	}
	addProviderFlags(cmd, f)
	addScopeFlags(cmd, f)
	cmd.Flags().StringVar(&f.search, "search", "", "Search text")
	return cmd
}

func newUnifiedCreateCmd(c *cli) *cobra.Command {
	f := &unifiedFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := f.providerID()
			if err != nil {
				return err
			}
			issue, err := c.unified.Create(cmd.Context(), provider, models.UnifiedCreateParams{
				Workspace: f.workspace,
				Repo:      f.repo,
				Title:     f.title,
				Body:      f.body,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", issue.DisplaySummary())
			if f.raw {
				printRaw(cmd.OutOrStdout(), issue.RawPayload)
			}
			return nil
		},
	}
	addProviderFlags(cmd, f)
	addScopeFlags(cmd, f)
	cmd.Flags().StringVar(&f.title, "title", "", "Issue title (required)")
	cmd.Flags().StringVar(&f.body, "body", "", "Issue body")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newUnifiedProjectsCmd(c *cli) *cobra.Command {
	f := &unifiedFlags{}
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List repositories, projects or boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := f.providerID()
			if err != nil {
				return err
			}
			projects, err := c.unified.ListProjects(cmd.Context(), provider, models.UnifiedProjectQuery{
				Workspace: f.workspace,
				Repo:      f.repo,
				Search:    f.search,
			})
			if err != nil {
				return err
			}
			printProjects(cmd.OutOrStdout(), projects, f.raw)
			return nil
		},
	}
	addProviderFlags(cmd, f)
	addScopeFlags(cmd, f)
	cmd.Flags().StringVar(&f.search, "search", "", "Case-insensitive name filter")
	return cmd
}

func newUnifiedCreateProjectCmd(c *cli) *cobra.Command {
	f := &unifiedFlags{}
	cmd := &cobra.Command{
		Use:   "create-project",
		Short: "Create a repository, project or board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := f.providerID()
			if err != nil {
				return err
			}
			project, err := c.unified.CreateProject(cmd.Context(), provider, models.UnifiedCreateProjectParams{
				Workspace:   f.workspace,
				Repo:        f.repo,
				Name:        f.name,
				Description: f.description,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", project.DisplaySummary())
			if f.raw {
				printRaw(cmd.OutOrStdout(), project.Raw)
			}
			return nil
		},
	}
	addProviderFlags(cmd, f)
	addScopeFlags(cmd, f)
	cmd.Flags().StringVar(&f.name, "name", "", "Project name (required)")
	cmd.Flags().StringVar(&f.description, "description", "", "Project description")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newUnifiedTasksCmd(c *cli) *cobra.Command {
	f := &unifiedFlags{}
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := f.providerID()
			if err != nil {
				return err
			}
			tasks, err := c.unified.ListTasks(cmd.Context(), provider, models.UnifiedTaskQuery{
				ProjectID: f.project,
				Status:    f.status,
			})
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), tasks, f.raw)
			return nil
		},
	}
	addProviderFlags(cmd, f)
	cmd.Flags().StringVar(&f.project, "project", "", "Project id (GitHub owner/repo, Linear project id, Trello board id, Jira project key)")
	cmd.Flags().StringVar(&f.status, "status", "", "Status filter")
	return cmd
}

func newUnifiedCreateTaskCmd(c *cli) *cobra.Command {
	f := &unifiedFlags{}
	cmd := &cobra.Command{
		Use:   "create-task",
		Short: "Create a task in a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := f.providerID()
			if err != nil {
				return err
			}
			task, err := c.unified.CreateTask(cmd.Context(), provider, models.UnifiedCreateTaskParams{
				ProjectID:   f.project,
				Title:       f.title,
				Description: f.body,
				Status:      f.status,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", task.DisplaySummary())
			if f.raw {
				printRaw(cmd.OutOrStdout(), task.Raw)
			}
			return nil
		},
	}
	addProviderFlags(cmd, f)
	cmd.Flags().StringVar(&f.project, "project", "", "Project id")
	cmd.Flags().StringVar(&f.title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&f.body, "body", "", "Task description")
	cmd.Flags().StringVar(&f.status, "status", "", "Initial status (Trello list name)")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newUnifiedMoveTaskCmd(c *cli) *cobra.Command {
	f := &unifiedFlags{}
	cmd := &cobra.Command{
		Use:   "move-task",
		Short: "Move a task to another status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := f.providerID()
			if err != nil {
				return err
			}
			task, err := c.unified.MoveTask(cmd.Context(), provider, models.UnifiedMoveTaskParams{
				TaskID:       f.task,
				TargetStatus: f.status,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s\n", task.DisplaySummary())
			if f.raw {
				printRaw(cmd.OutOrStdout(), task.Raw)
			}
			return nil
		},
	}
	addProviderFlags(cmd, f)
	cmd.Flags().StringVar(&f.task, "task", "", "Task id (GitHub owner/repo#N, Trello card id, Jira key)")
	cmd.Flags().StringVar(&f.status, "status", "", "Target status")
	cmd.MarkFlagRequired("task")
	cmd.MarkFlagRequired("status")
	return cmd
}
