package interfaces

import (
	"context"

	"github.com/ternarybob/kirei/internal/models"
)

// UnifiedService runs provider operations end to end (token, adapter, call).
// An empty provider selects the configured default.
type UnifiedService interface {
	List(ctx context.Context, provider models.ProviderID, query models.UnifiedListQuery) ([]*models.UnifiedIssue, error)
	Create(ctx context.Context, provider models.ProviderID, params models.UnifiedCreateParams) (*models.UnifiedIssue, error)
	ListProjects(ctx context.Context, provider models.ProviderID, query models.UnifiedProjectQuery) ([]*models.UnifiedProject, error)
	CreateProject(ctx context.Context, provider models.ProviderID, params models.UnifiedCreateProjectParams) (*models.UnifiedProject, error)
	ListTasks(ctx context.Context, provider models.ProviderID, query models.UnifiedTaskQuery) ([]*models.UnifiedTask, error)
	CreateTask(ctx context.Context, provider models.ProviderID, params models.UnifiedCreateTaskParams) (*models.UnifiedTask, error)
	MoveTask(ctx context.Context, provider models.ProviderID, params models.UnifiedMoveTaskParams) (*models.UnifiedTask, error)
}
