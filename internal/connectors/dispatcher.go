// Package connectors selects the provider adapter behind interfaces.ProviderClient.
package connectors

import (
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kirei/internal/connectors/github"
	"github.com/ternarybob/kirei/internal/connectors/jira"
	"github.com/ternarybob/kirei/internal/connectors/linear"
	"github.com/ternarybob/kirei/internal/connectors/trello"
	"github.com/ternarybob/kirei/internal/httpclient"
	"github.com/ternarybob/kirei/internal/interfaces"
	"github.com/ternarybob/kirei/internal/models"
)

// BuildOptions carries transport settings shared by every adapter. The zero
// value gives production endpoints and default timeouts.
type BuildOptions struct {
	Logger     arbor.ILogger
	HTTPClient *http.Client
	RateLimit  int
	// BaseURLs overrides a provider's API root (GitHub Enterprise, tests)
	BaseURLs map[models.ProviderID]string
}

// Build constructs the adapter for provider. It performs no I/O; the token
// must already be resolved. The only failure is an unknown provider tag.
func Build(provider models.ProviderID, token string, defaults models.ScopeDefaults, opts BuildOptions) (interfaces.ProviderClient, error) {
	baseURL := opts.BaseURLs[provider]

	switch provider {
	case models.ProviderGitHub:
		ghOpts := []github.Option{
			github.WithLogger(opts.Logger),
			github.WithHTTPClient(opts.HTTPClient),
			github.WithRateLimit(opts.RateLimit),
		}
		if baseURL != "" {
			ghOpts = append(ghOpts, github.WithBaseURL(baseURL))
		}
		client, err := github.NewClient(token, defaults.Repo, ghOpts...)
		if err != nil {
			return nil, err
		}
		return client, nil

	case models.ProviderLinear:
		return linear.NewClient(token, defaults.Workspace, opts.Logger, transportOptions(opts, baseURL)...), nil

	case models.ProviderTrello:
		return trello.NewClient(token, defaults.TrelloAPIKey, defaults.Board, opts.Logger, transportOptions(opts, baseURL)...), nil

	case models.ProviderJira:
		serverURL := models.FirstNonEmpty(baseURL, defaults.JiraServerURL)
		return jira.NewClient(token, serverURL, defaults.JiraEmail, defaults.Project, opts.Logger, transportOptions(opts, "")...), nil

	default:
		return nil, models.NewConfigurationError(provider, fmt.Sprintf("unknown provider '%s'", string(provider)), nil)
	}
}

func transportOptions(opts BuildOptions, baseURL string) []httpclient.Option {
	out := []httpclient.Option{
		httpclient.WithHTTPClient(opts.HTTPClient),
		httpclient.WithRateLimit(opts.RateLimit),
	}
	if baseURL != "" {
		out = append(out, httpclient.WithBaseURL(baseURL))
	}
	return out
}
