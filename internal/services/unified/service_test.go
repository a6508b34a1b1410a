package unified

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/kirei/internal/common"
	"github.com/ternarybob/kirei/internal/connectors"
	"github.com/ternarybob/kirei/internal/models"
	"github.com/ternarybob/kirei/internal/services/credentials"
)

func envResolver(env map[string]string) *credentials.Resolver {
	return credentials.NewResolverWithEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
}

func newTestService(t *testing.T, cfg *common.Config, env map[string]string, serverURL string) *Service {
	t.Helper()
	return NewService(cfg, filepath.Join(t.TempDir(), "config.toml"), nil,
		WithResolver(envResolver(env)),
		WithBuildOptions(connectors.BuildOptions{
			BaseURLs: map[models.ProviderID]string{
				models.ProviderGitHub: serverURL,
				models.ProviderLinear: serverURL,
				models.ProviderTrello: serverURL,
				models.ProviderJira:   serverURL,
			},
		}),
	)
}

// No stored token, KIREI_GITHUB_TOKEN set, default repo octo/repo.
func TestList_GitHubWithEnvironmentToken(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/repos/octo/repo/issues", r.URL.Path)
		assert.Equal(t, "state=open&per_page=20", r.URL.RawQuery)
		assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id":1,"number":1,"title":"one","state":"open"},{"id":2,"number":2,"title":"two","state":"open"}]`))
	}))
	defer server.Close()

	cfg := common.NewDefaultConfig()
	cfg.GitHub.DefaultRepo = "octo/repo"

	svc := newTestService(t, cfg, map[string]string{"KIREI_GITHUB_TOKEN": "abc123"}, server.URL)

	issues, err := svc.List(context.Background(), "", models.UnifiedListQuery{})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.Equal(t, models.ProviderGitHub, issue.Provider)
	}
	assert.Equal(t, 1, requests)
	assert.Equal(t, "env", svc.CredentialSource(models.ProviderGitHub))
}

func TestList_MissingCredentialMakesNoRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer server.Close()

	svc := newTestService(t, common.NewDefaultConfig(), nil, server.URL)

	_, err := svc.List(context.Background(), models.ProviderLinear, models.UnifiedListQuery{})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindMissingCredential))
	assert.Contains(t, err.Error(), "KIREI_LINEAR_TOKEN")
}

func TestCreate_ValidatesParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer server.Close()

	cfg := common.NewDefaultConfig()
	cfg.SetToken(models.ProviderGitHub, "stored")
	svc := newTestService(t, cfg, nil, server.URL)

	tests := []struct {
		name string
		call func() error
	}{
		{name: "issue without title", call: func() error {
			_, err := svc.Create(context.Background(), models.ProviderGitHub, models.UnifiedCreateParams{Repo: "octo/repo"})
			return err
		}},
		{name: "project without name", call: func() error {
			_, err := svc.CreateProject(context.Background(), models.ProviderGitHub, models.UnifiedCreateProjectParams{})
			return err
		}},
		{name: "task without title", call: func() error {
			_, err := svc.CreateTask(context.Background(), models.ProviderGitHub, models.UnifiedCreateTaskParams{ProjectID: "octo/repo"})
			return err
		}},
		{name: "move without target", call: func() error {
			_, err := svc.MoveTask(context.Background(), models.ProviderGitHub, models.UnifiedMoveTaskParams{TaskID: "octo/repo#1"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, models.IsKind(err, models.ErrKindConfiguration))
		})
	}
}

func TestResolveProvider(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.DefaultProvider = models.ProviderJira
	svc := NewService(cfg, "", nil)

	provider, err := svc.ResolveProvider("")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderJira, provider)

	_, err = svc.ResolveProvider("gitlab")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindConfiguration))
}

func TestSetCredential_PersistsTrimmedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := common.NewDefaultConfig()
	svc := NewService(cfg, path, nil, WithResolver(envResolver(nil)))

	require.NoError(t, svc.SetCredential(models.ProviderTrello, "  trello-token \n"))
	assert.Equal(t, "config", svc.CredentialSource(models.ProviderTrello))

	loaded, err := common.LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, "trello-token", loaded.Tokens[models.ProviderTrello])

	err = svc.SetCredential(models.ProviderTrello, "   ")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindConfiguration))
}

func TestSetCredential_KeepsEnvironmentOverridesOutOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[tokens]
linear = "lin-stored"

[github]
default_repo = "acme/widgets"
`), 0600))

	t.Setenv("KIREI_GITHUB_REPO", "octo/scratch")
	t.Setenv("KIREI_GITHUB_CLIENT_SECRET", "env-client-secret")
	t.Setenv("KIREI_TRELLO_API_KEY", "env-trello-key")
	t.Setenv("KIREI_LOG_LEVEL", "debug")

	cfg, err := common.LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "octo/scratch", cfg.GitHub.DefaultRepo)

	svc := NewService(cfg, path, nil, WithResolver(envResolver(nil)))
	require.NoError(t, svc.SetCredential(models.ProviderJira, "jira-token"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	saved := string(data)
	assert.Contains(t, saved, "acme/widgets")
	assert.Contains(t, saved, "jira-token")
	assert.Contains(t, saved, "lin-stored")
	assert.NotContains(t, saved, "octo/scratch")
	assert.NotContains(t, saved, "env-client-secret")
	assert.NotContains(t, saved, "env-trello-key")
	assert.NotContains(t, saved, "debug")

	// The running service keeps the environment view
	assert.Equal(t, "octo/scratch", cfg.GitHub.DefaultRepo)
	assert.Equal(t, "config", svc.CredentialSource(models.ProviderJira))
}

func TestListTasks_StoredTokenUsedForTrello(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "stored-trello", r.URL.Query().Get("token"))
		switch r.URL.Path {
		case "/boards/b1/cards":
			w.Write([]byte(`[{"id":"c1","name":"card","idList":"l1"}]`))
		case "/boards/b1/lists":
			w.Write([]byte(`[{"id":"l1","name":"Backlog"}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	cfg := common.NewDefaultConfig()
	cfg.Trello.APIKey = "key"
	cfg.SetToken(models.ProviderTrello, "stored-trello")
	svc := newTestService(t, cfg, nil, server.URL)

	tasks, err := svc.ListTasks(context.Background(), models.ProviderTrello, models.UnifiedTaskQuery{ProjectID: "b1"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Backlog", tasks[0].Status)
}
