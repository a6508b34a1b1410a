package credentials

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/kirei/internal/models"
)

type mapStore map[models.ProviderID]string

func (m mapStore) Token(provider models.ProviderID) (string, bool) {
	token, ok := m[provider]
	return token, ok
}

func TestResolveToken(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		store      mapStore
		provider   models.ProviderID
		wantToken  string
		wantSource string
		wantErr    bool
	}{
		{
			name:       "environment wins over config",
			env:        map[string]string{"KIREI_GITHUB_TOKEN": "from-env"},
			store:      mapStore{models.ProviderGitHub: "from-config"},
			provider:   models.ProviderGitHub,
			wantToken:  "from-env",
			wantSource: "env",
		},
		{
			name:       "environment value is trimmed",
			env:        map[string]string{"KIREI_LINEAR_TOKEN": "  lin \n"},
			provider:   models.ProviderLinear,
			wantToken:  "lin",
			wantSource: "env",
		},
		{
			name:       "blank environment falls through to config",
			env:        map[string]string{"KIREI_JIRA_TOKEN": "   "},
			store:      mapStore{models.ProviderJira: "jira-config"},
			provider:   models.ProviderJira,
			wantToken:  "jira-config",
			wantSource: "config",
		},
		{
			name:       "other providers' variables are ignored",
			env:        map[string]string{"KIREI_GITHUB_TOKEN": "gh"},
			store:      mapStore{models.ProviderTrello: "trello-config"},
			provider:   models.ProviderTrello,
			wantToken:  "trello-config",
			wantSource: "config",
		},
		{
			name:     "nothing available",
			env:      map[string]string{},
			store:    mapStore{models.ProviderGitHub: "gh"},
			provider: models.ProviderLinear,
			wantErr:  true,
		},
		{
			name:     "nil store",
			provider: models.ProviderJira,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolverWithEnv(func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			})

			var store mapStore
			if tt.store != nil {
				store = tt.store
			}

			token, err := resolver.ResolveToken(tt.provider, store)
			assert.Equal(t, tt.wantSource, resolver.Source(tt.provider, store))

			if tt.wantErr {
				require.Error(t, err)
				var ue *models.UnifiedError
				require.True(t, errors.As(err, &ue))
				assert.Equal(t, models.ErrKindMissingCredential, ue.Kind)
				assert.Equal(t, tt.provider, ue.Provider)
				assert.Contains(t, err.Error(), tt.provider.DisplayName())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestResolveToken_ReadsEnvironmentEveryCall(t *testing.T) {
	resolver := NewResolver()
	store := mapStore{models.ProviderGitHub: "stored"}

	t.Setenv("KIREI_GITHUB_TOKEN", "")
	token, err := resolver.ResolveToken(models.ProviderGitHub, store)
	require.NoError(t, err)
	assert.Equal(t, "stored", token)

	t.Setenv("KIREI_GITHUB_TOKEN", "exported")
	token, err = resolver.ResolveToken(models.ProviderGitHub, store)
	require.NoError(t, err)
	assert.Equal(t, "exported", token)
}
