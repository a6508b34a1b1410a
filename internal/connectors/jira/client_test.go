package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/kirei/internal/httpclient"
	"github.com/ternarybob/kirei/internal/models"
)

const issueFixture = `{"id":"10001","key":"KIR-1","self":"https://x/rest/api/3/issue/10001","fields":{"summary":"Broken build","status":{"name":"To Do"},"project":{"key":"KIR"},"description":{"type":"doc","version":1,"content":[{"type":"paragraph","content":[{"type":"text","text":"CI is red"}]}]}}}`

func newTestClient(t *testing.T, mux *http.ServeMux) (*Client, string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "dev@example.com", user)
		assert.Equal(t, "jira-token", pass)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClient("jira-token", server.URL+"/", "dev@example.com", "KIR", nil, httpclient.WithRateLimit(0))
	return client, server.URL
}

func TestList_SearchesWithJQL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "project = KIR AND status != Done ORDER BY created DESC", r.URL.Query().Get("jql"))
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))
		w.Write([]byte(`{"total":1,"issues":[` + issueFixture + `]}`))
	})

	client, serverURL := newTestClient(t, mux)
	issues, err := client.List(context.Background(), models.UnifiedListQuery{})
	require.NoError(t, err)
	require.Len(t, issues, 1)

	assert.Equal(t, "KIR-1", issues[0].ID)
	assert.Equal(t, "Broken build", issues[0].Title)
	assert.Equal(t, "To Do", issues[0].State)
	assert.Equal(t, serverURL+"/browse/KIR-1", issues[0].URL)
	assert.Equal(t, models.ProviderJira, issues[0].Provider)
	assert.Equal(t, issueFixture, string(issues[0].RawPayload))
}

func TestList_MissingIssuesArray(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errorMessages":["no such project"]}`))
	})

	client, _ := newTestClient(t, mux)
	_, err := client.List(context.Background(), models.UnifiedListQuery{Workspace: "NOPE"})
	require.Error(t, err)

	var ue *models.UnifiedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, models.ErrKindUnexpectedResponse, ue.Kind)
	assert.Contains(t, ue.Body, "no such project")
}

func TestList_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *Client
	}{
		{name: "no server", client: NewClient("t", "", "dev@example.com", "KIR", nil)},
		{name: "no email", client: NewClient("t", "https://x.atlassian.net", "", "KIR", nil)},
		{name: "no project", client: NewClient("t", "https://x.atlassian.net", "dev@example.com", "", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.client.List(context.Background(), models.UnifiedListQuery{})
			require.Error(t, err)
			assert.True(t, models.IsKind(err, models.ErrKindConfiguration))
		})
	}
}

func TestList_RepoOverridesDefaultProject(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "project = OPS AND status != Done ORDER BY created DESC", r.URL.Query().Get("jql"))
		w.Write([]byte(`{"issues":[]}`))
	})

	client, _ := newTestClient(t, mux)
	issues, err := client.List(context.Background(), models.UnifiedListQuery{Repo: "OPS", Workspace: "IGNORED"})
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCreate_RepoOverridesDefaultProject(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/issue", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Fields map[string]json.RawMessage `json:"fields"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.JSONEq(t, `{"key":"OPS"}`, string(payload.Fields["project"]))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"10001","key":"KIR-1"}`))
	})
	mux.HandleFunc("/rest/api/3/issue/KIR-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(issueFixture))
	})

	client, _ := newTestClient(t, mux)
	_, err := client.Create(context.Background(), models.UnifiedCreateParams{Repo: "OPS", Title: "Broken build"})
	require.NoError(t, err)
}

func TestList_RejectsInvalidProjectKey(t *testing.T) {
	tests := []string{`KIR OR project = SECRET`, `1ABC`, `KIR-1`, `"KIR"`}

	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/rest/api/3/search", func(w http.ResponseWriter, r *http.Request) {
				t.Error("no search may be sent for an invalid key")
			})

			client, _ := newTestClient(t, mux)
			_, err := client.List(context.Background(), models.UnifiedListQuery{Repo: key})
			require.Error(t, err)
			assert.True(t, models.IsKind(err, models.ErrKindConfiguration))
			assert.Contains(t, err.Error(), "invalid project key")
		})
	}
}

func TestCreate_BuildsFields(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantDesc bool
	}{
		{name: "with description", body: "CI is red", wantDesc: true},
		{name: "flat without description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/rest/api/3/issue", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)

				var payload struct {
					Fields map[string]json.RawMessage `json:"fields"`
				}
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				assert.JSONEq(t, `{"key":"KIR"}`, string(payload.Fields["project"]))
				assert.JSONEq(t, `"Broken build"`, string(payload.Fields["summary"]))
				assert.JSONEq(t, `{"name":"Task"}`, string(payload.Fields["issuetype"]))

				desc, ok := payload.Fields["description"]
				assert.Equal(t, tt.wantDesc, ok)
				if tt.wantDesc {
					assert.JSONEq(t,
						`{"type":"doc","version":1,"content":[{"type":"paragraph","content":[{"type":"text","text":"CI is red"}]}]}`,
						string(desc))
				}

				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"id":"10001","key":"KIR-1","self":"https://x/rest/api/3/issue/10001"}`))
			})
			mux.HandleFunc("/rest/api/3/issue/KIR-1", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(issueFixture))
			})

			client, _ := newTestClient(t, mux)
			issue, err := client.Create(context.Background(), models.UnifiedCreateParams{Title: "Broken build", Body: tt.body})
			require.NoError(t, err)
			assert.Equal(t, "KIR-1", issue.ID)
			assert.Equal(t, "Broken build", issue.Title)
			assert.Equal(t, issueFixture, string(issue.RawPayload))
		})
	}
}

func TestListProjects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/project", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"1","key":"KIR","name":"Kirei"},{"id":"2","key":"OPS","name":"Operations"}]`))
	})

	client, _ := newTestClient(t, mux)
	projects, err := client.ListProjects(context.Background(), models.UnifiedProjectQuery{Search: "kir"})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "KIR", projects[0].ID)
	assert.Equal(t, "Kirei", projects[0].Name)
}

func TestCreateProject_NotImplemented(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux())
	_, err := client.CreateProject(context.Background(), models.UnifiedCreateProjectParams{Name: "x"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindNotImplemented))
}

func TestListTasks_StatusFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `project = KIR AND status = "In Progress" ORDER BY created DESC`, r.URL.Query().Get("jql"))
		w.Write([]byte(`{"issues":[` + issueFixture + `]}`))
	})

	client, _ := newTestClient(t, mux)
	tasks, err := client.ListTasks(context.Background(), models.UnifiedTaskQuery{Status: "In Progress"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "CI is red", tasks[0].Description)
	assert.Equal(t, "KIR", tasks[0].ProjectID)
}

func TestMoveTask_AppliesMatchingTransition(t *testing.T) {
	transitioned := false
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/3/issue/KIR-1/transitions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"transitions":[{"id":"11","name":"Start","to":{"name":"In Progress"}},{"id":"31","name":"Finish","to":{"name":"Done"}}]}`))
		case http.MethodPost:
			var payload map[string]map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "31", payload["transition"]["id"])
			transitioned = true
			w.WriteHeader(http.StatusNoContent)
		}
	})
	mux.HandleFunc("/rest/api/3/issue/KIR-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"10001","key":"KIR-1","fields":{"summary":"Broken build","status":{"name":"Done"},"project":{"key":"KIR"}}}`))
	})

	client, _ := newTestClient(t, mux)
	task, err := client.MoveTask(context.Background(), models.UnifiedMoveTaskParams{TaskID: "KIR-1", TargetStatus: "done"})
	require.NoError(t, err)
	assert.True(t, transitioned)
	assert.Equal(t, "Done", task.Status)

	_, err = client.MoveTask(context.Background(), models.UnifiedMoveTaskParams{TaskID: "KIR-1", TargetStatus: "Blocked"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindConfiguration))
}
