package interfaces

import (
	"context"

	"github.com/ternarybob/kirei/internal/models"
)

// ProviderClient is the capability every tracker adapter implements.
// Callers depend only on this interface, never on a concrete adapter.
type ProviderClient interface {
	// Provider returns the static identity of the adapter
	Provider() models.ProviderID

	// List fetches currently open items scoped by the query, falling back to the adapter's default scope
	List(ctx context.Context, query models.UnifiedListQuery) ([]*models.UnifiedIssue, error)
	// Create creates one item and returns it through the same projection List uses
	Create(ctx context.Context, params models.UnifiedCreateParams) (*models.UnifiedIssue, error)

	ListProjects(ctx context.Context, query models.UnifiedProjectQuery) ([]*models.UnifiedProject, error)
	CreateProject(ctx context.Context, params models.UnifiedCreateProjectParams) (*models.UnifiedProject, error)

	ListTasks(ctx context.Context, query models.UnifiedTaskQuery) ([]*models.UnifiedTask, error)
	CreateTask(ctx context.Context, params models.UnifiedCreateTaskParams) (*models.UnifiedTask, error)
	MoveTask(ctx context.Context, params models.UnifiedMoveTaskParams) (*models.UnifiedTask, error)
}

// CredentialView is the read-only credential store the token resolver consults
type CredentialView interface {
	Token(provider models.ProviderID) (string, bool)
}
