// Package unified runs one provider operation end to end: resolve the token,
// build the adapter, validate the parameters and execute.
package unified

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kirei/internal/common"
	"github.com/ternarybob/kirei/internal/connectors"
	"github.com/ternarybob/kirei/internal/interfaces"
	"github.com/ternarybob/kirei/internal/models"
	"github.com/ternarybob/kirei/internal/services/credentials"
)

// Service orchestrates unified operations against the configured providers
type Service struct {
	config     *common.Config
	configPath string
	resolver   *credentials.Resolver
	buildOpts  connectors.BuildOptions
	validate   *validator.Validate
	logger     arbor.ILogger
	mu         sync.RWMutex
}

var _ interfaces.UnifiedService = (*Service)(nil)

// Option configures the Service
type Option func(*Service)

// WithResolver replaces the environment-backed credential resolver
func WithResolver(resolver *credentials.Resolver) Option {
	return func(s *Service) {
		s.resolver = resolver
	}
}

// WithBuildOptions sets transport options passed to every adapter
func WithBuildOptions(opts connectors.BuildOptions) Option {
	return func(s *Service) {
		s.buildOpts = opts
	}
}

// NewService creates the unified service. configPath is where SetCredential
// persists the credential store.
func NewService(cfg *common.Config, configPath string, logger arbor.ILogger, opts ...Option) *Service {
	if logger == nil {
		logger = common.GetLogger()
	}

	s := &Service{
		config:     cfg,
		configPath: configPath,
		resolver:   credentials.NewResolver(),
		validate:   validator.New(),
		logger:     logger,
	}
	s.buildOpts = connectors.BuildOptions{
		RateLimit: cfg.HTTP.RateLimit,
	}

	for _, opt := range opts {
		opt(s)
	}

	// one pooled client shared by every adapter built from this service
	if s.buildOpts.HTTPClient == nil {
		s.buildOpts.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout()}
	}
	if s.buildOpts.Logger == nil {
		s.buildOpts.Logger = logger
	}
	if len(s.buildOpts.BaseURLs) == 0 {
		s.buildOpts.BaseURLs = configuredBaseURLs(cfg)
	}

	return s
}

func configuredBaseURLs(cfg *common.Config) map[models.ProviderID]string {
	urls := map[models.ProviderID]string{}
	if cfg.GitHub.BaseURL != "" {
		urls[models.ProviderGitHub] = cfg.GitHub.BaseURL
	}
	if cfg.Linear.BaseURL != "" {
		urls[models.ProviderLinear] = cfg.Linear.BaseURL
	}
	if cfg.Trello.BaseURL != "" {
		urls[models.ProviderTrello] = cfg.Trello.BaseURL
	}
	return urls
}

// ResolveProvider returns provider, or the configured default when empty
func (s *Service) ResolveProvider(provider models.ProviderID) (models.ProviderID, error) {
	if provider == "" {
		s.mu.RLock()
		provider = s.config.DefaultProvider
		s.mu.RUnlock()
	}
	if !provider.Valid() {
		return "", models.NewConfigurationError(provider, fmt.Sprintf("unknown provider '%s'", string(provider)), nil)
	}
	return provider, nil
}

// client resolves the token and builds the adapter for one call
func (s *Service) client(provider models.ProviderID) (interfaces.ProviderClient, error) {
	provider, err := s.ResolveProvider(provider)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	token, err := s.resolver.ResolveToken(provider, s.config)
	defaults := s.config.ScopeDefaults()
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	return connectors.Build(provider, token, defaults, s.buildOpts)
}

func (s *Service) validateParams(provider models.ProviderID, params interface{}) error {
	if err := s.validate.Struct(params); err != nil {
		return models.NewConfigurationError(provider, "invalid parameters", err)
	}
	return nil
}

// run executes op with a per-call correlated logger and logs the outcome
func (s *Service) run(operation string, provider models.ProviderID, op func(client interfaces.ProviderClient) (int, error)) error {
	start := time.Now()

	client, err := s.client(provider)
	if err != nil {
		s.logger.Warn().
			Str("operation", operation).
			Str("provider", string(provider)).
			Err(err).
			Msg("Unified operation not started")
		return err
	}

	logger := s.logger.WithCorrelationId(common.NewCorrelationID())
	count, err := op(client)
	if err != nil {
		logger.Error().
			Str("operation", operation).
			Str("provider", string(client.Provider())).
			Str("kind", string(models.KindOf(err))).
			Err(err).
			Msg("Unified operation failed")
		return err
	}

	logger.Debug().
		Str("operation", operation).
		Str("provider", string(client.Provider())).
		Int("count", count).
		Str("duration", time.Since(start).String()).
		Msg("Unified operation completed")
	return nil
}

// List fetches open issues from provider
func (s *Service) List(ctx context.Context, provider models.ProviderID, query models.UnifiedListQuery) ([]*models.UnifiedIssue, error) {
	var issues []*models.UnifiedIssue
	err := s.run("list", provider, func(client interfaces.ProviderClient) (int, error) {
		var err error
		issues, err = client.List(ctx, query)
		return len(issues), err
	})
	return issues, err
}

// Create creates one issue on provider
func (s *Service) Create(ctx context.Context, provider models.ProviderID, params models.UnifiedCreateParams) (*models.UnifiedIssue, error) {
	if err := s.validateParams(provider, params); err != nil {
		return nil, err
	}
	var issue *models.UnifiedIssue
	err := s.run("create", provider, func(client interfaces.ProviderClient) (int, error) {
		var err error
		issue, err = client.Create(ctx, params)
		return 1, err
	})
	return issue, err
}

// ListProjects lists repositories, projects or boards on provider
func (s *Service) ListProjects(ctx context.Context, provider models.ProviderID, query models.UnifiedProjectQuery) ([]*models.UnifiedProject, error) {
	var projects []*models.UnifiedProject
	err := s.run("list_projects", provider, func(client interfaces.ProviderClient) (int, error) {
		var err error
		projects, err = client.ListProjects(ctx, query)
		return len(projects), err
	})
	return projects, err
}

// CreateProject creates a project on provider
func (s *Service) CreateProject(ctx context.Context, provider models.ProviderID, params models.UnifiedCreateProjectParams) (*models.UnifiedProject, error) {
	if err := s.validateParams(provider, params); err != nil {
		return nil, err
	}
	var project *models.UnifiedProject
	err := s.run("create_project", provider, func(client interfaces.ProviderClient) (int, error) {
		var err error
		project, err = client.CreateProject(ctx, params)
		return 1, err
	})
	return project, err
}

// ListTasks lists the tasks of a project on provider
func (s *Service) ListTasks(ctx context.Context, provider models.ProviderID, query models.UnifiedTaskQuery) ([]*models.UnifiedTask, error) {
	var tasks []*models.UnifiedTask
	err := s.run("list_tasks", provider, func(client interfaces.ProviderClient) (int, error) {
		var err error
		tasks, err = client.ListTasks(ctx, query)
		return len(tasks), err
	})
	return tasks, err
}

// CreateTask creates a task on provider
func (s *Service) CreateTask(ctx context.Context, provider models.ProviderID, params models.UnifiedCreateTaskParams) (*models.UnifiedTask, error) {
	if err := s.validateParams(provider, params); err != nil {
		return nil, err
	}
	var task *models.UnifiedTask
	err := s.run("create_task", provider, func(client interfaces.ProviderClient) (int, error) {
		var err error
		task, err = client.CreateTask(ctx, params)
		return 1, err
	})
	return task, err
}

// MoveTask moves a task to another status on provider
func (s *Service) MoveTask(ctx context.Context, provider models.ProviderID, params models.UnifiedMoveTaskParams) (*models.UnifiedTask, error) {
	if err := s.validateParams(provider, params); err != nil {
		return nil, err
	}
	var task *models.UnifiedTask
	err := s.run("move_task", provider, func(client interfaces.ProviderClient) (int, error) {
		var err error
		task, err = client.MoveTask(ctx, params)
		return 1, err
	})
	return task, err
}

// SetCredential stores a trimmed token for provider and saves the config
func (s *Service) SetCredential(provider models.ProviderID, token string) error {
	if !provider.Valid() {
		return models.NewConfigurationError(provider, fmt.Sprintf("unknown provider '%s'", string(provider)), nil)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return models.NewConfigurationError(provider, "token must not be empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.SetToken(provider, token)
	if s.configPath == "" {
		return nil
	}

	// Save from the file's own contents so env overrides stay out of it
	stored, err := common.LoadFileOnly(s.configPath)
	if err != nil {
		return models.NewConfigurationError(provider, "failed to read config before saving credential", err)
	}
	stored.SetToken(provider, token)
	if err := stored.Save(s.configPath); err != nil {
		return models.NewConfigurationError(provider, "failed to save credential", err)
	}

	s.logger.Info().
		Str("provider", string(provider)).
		Str("path", s.configPath).
		Msg("Credential stored")
	return nil
}

// CredentialSource reports where provider's token comes from ("env", "config" or "")
func (s *Service) CredentialSource(provider models.ProviderID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver.Source(provider, s.config)
}
