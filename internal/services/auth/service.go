package auth

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kirei/internal/common"
	"github.com/ternarybob/kirei/internal/models"
)

// CredentialStore persists a token obtained by a login flow
type CredentialStore interface {
	SetCredential(provider models.ProviderID, token string) error
}

// Service runs interactive logins and hands the resulting token to the store
type Service struct {
	config   *common.Config
	store    CredentialStore
	logger   arbor.ILogger
	flowOpts []FlowOption
}

// NewService creates an auth service. flowOpts are passed to every flow it builds.
func NewService(cfg *common.Config, store CredentialStore, logger arbor.ILogger, flowOpts ...FlowOption) *Service {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Service{
		config:   cfg,
		store:    store,
		logger:   logger,
		flowOpts: flowOpts,
	}
}

// LoginGitHub runs the loopback flow with the configured OAuth app and
// stores the token. display receives the authorization URL to open.
func (s *Service) LoginGitHub(ctx context.Context, display func(authURL string)) error {
	gh := s.config.GitHub
	if gh.ClientID == "" || gh.ClientSecret == "" {
		return models.NewConfigurationError(models.ProviderGitHub,
			"github.client_id and github.client_secret are required for login (or set KIREI_GITHUB_CLIENT_ID / KIREI_GITHUB_CLIENT_SECRET)", nil)
	}

	scope := s.config.OAuth.Scope
	if scope == "" {
		scope = "repo"
	}

	flow := NewLoopbackFlow(FlowConfig{
		Provider:     models.ProviderGitHub,
		ClientID:     gh.ClientID,
		ClientSecret: gh.ClientSecret,
		Scopes:       []string{scope},
	}, s.logger, s.flowOpts...)

	token, err := flow.Run(ctx, s.config.OAuthTimeout(), display)
	if err != nil {
		s.logger.Error().Err(err).Str("provider", string(models.ProviderGitHub)).Msg("GitHub login failed")
		return err
	}

	if err := s.store.SetCredential(models.ProviderGitHub, token); err != nil {
		return err
	}

	s.logger.Info().Str("provider", string(models.ProviderGitHub)).Msg("GitHub token stored")
	return nil
}
