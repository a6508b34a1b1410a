package linear

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

type capturedRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func newTestClient(t *testing.T, workspace string, respond func(req capturedRequest) string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer lin_key", r.Header.Get("Authorization"))

		var req capturedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(respond(req)))
	}))
	t.Cleanup(server.Close)

	return NewClient("lin_key", workspace, nil, httpclient.WithBaseURL(server.URL), httpclient.WithRateLimit(0))
}

func TestList_MapsNodes(t *testing.T) {
	node := `{"id":"abc-1","identifier":"ENG-1","title":"Fix login","url":"https://linear.app/x/issue/ENG-1","state":{"name":"In Progress","type":"started"}}`
	client := newTestClient(t, "team-1", func(req capturedRequest) string {
		assert.Contains(t, req.Query, `neq: "completed"`)
		assert.Equal(t, "team-1", req.Variables["workspaceId"])
		return `{"data":{"issues":{"nodes":[` + node + `,{"id":"abc-2"}]}}}`
	})

	issues, err := client.List(context.Background(), models.UnifiedListQuery{})
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, "abc-1", issues[0].ID)
	assert.Equal(t, "In Progress", issues[0].State)
	assert.Equal(t, "https://linear.app/x/issue/ENG-1", issues[0].URL)
	assert.Equal(t, models.ProviderLinear, issues[0].Provider)
	assert.Equal(t, node, string(issues[0].RawPayload))

	assert.Equal(t, "untitled", issues[1].Title)
	assert.Equal(t, "unknown", issues[1].State)
}

func TestList_WithoutWorkspaceSendsNoVariables(t *testing.T) {
	client := newTestClient(t, "", func(req capturedRequest) string {
		assert.Empty(t, req.Variables)
		assert.NotContains(t, req.Query, "$workspaceId")
		return `{"data":{"issues":{"nodes":[]}}}`
	})

	issues, err := client.List(context.Background(), models.UnifiedListQuery{})
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestList_MissingNodesIsUnexpectedResponse(t *testing.T) {
	body := `{"errors":[{"message":"Authentication required"}]}`
	client := newTestClient(t, "", func(req capturedRequest) string { return body })

	_, err := client.List(context.Background(), models.UnifiedListQuery{})
	require.Error(t, err)

	var ue *models.UnifiedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, models.ErrKindUnexpectedResponse, ue.Kind)
	assert.Equal(t, body, ue.Body)
}

func TestList_NonArrayNodesCarriesWholeBody(t *testing.T) {
	body := `{"data":{"issues":{"nodes":{"id":"not-a-list"}}}}`
	client := newTestClient(t, "", func(req capturedRequest) string { return body })

	_, err := client.List(context.Background(), models.UnifiedListQuery{})
	require.Error(t, err)

	var ue *models.UnifiedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, models.ErrKindUnexpectedResponse, ue.Kind)
	assert.Equal(t, body, ue.Body)
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantErr   bool
		wantTitle string
	}{
		{
			name:      "issue returned",
			response:  `{"data":{"issueCreate":{"success":true,"issue":{"id":"n1","title":"New","state":{"name":"Todo"},"url":"https://linear.app/i/n1"}}}}`,
			wantTitle: "New",
		},
		{
			name:     "success false without issue",
			response: `{"data":{"issueCreate":{"success":false,"issue":null}}}`,
			wantErr:  true,
		},
		{
			name:     "graphql error",
			response: `{"data":null,"errors":[{"message":"teamId invalid"}]}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, "team-1", func(req capturedRequest) string {
				assert.Contains(t, req.Query, "issueCreate")
				input, ok := req.Variables["input"].(map[string]interface{})
				assert.True(t, ok)
				assert.Equal(t, "New", input["title"])
				assert.Equal(t, "Body", input["description"])
				assert.Equal(t, "team-1", input["teamId"])
				return tt.response
			})

			issue, err := client.Create(context.Background(), models.UnifiedCreateParams{Title: "New", Body: "Body"})
			if tt.wantErr {
				require.Error(t, err)
				var ue *models.UnifiedError
				require.True(t, errors.As(err, &ue))
				assert.Equal(t, models.ErrKindUnexpectedResponse, ue.Kind)
				assert.Equal(t, tt.response, ue.Body)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, issue.Title)
			assert.Equal(t, "Todo", issue.State)
		})
	}
}

func TestListProjects_FiltersByTeamAndSearch(t *testing.T) {
	client := newTestClient(t, "", func(req capturedRequest) string {
		assert.Contains(t, req.Query, "projects(first: 50)")
		return `{"data":{"projects":{"nodes":[
			{"id":"p1","name":"Roadmap","teams":{"nodes":[{"id":"t1","key":"ENG"}]}},
			{"id":"p2","name":"Road trip","teams":{"nodes":[{"id":"t2","key":"OPS"}]}},
			{"id":"p3","name":"Billing","teams":{"nodes":[{"id":"t1","key":"ENG"}]}}
		]}}}`
	})

	projects, err := client.ListProjects(context.Background(), models.UnifiedProjectQuery{Workspace: "t1", Search: "ROAD"})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "p1", projects[0].ID)
	assert.Equal(t, "ENG", projects[0].Parent)
}

func TestCreateProject_RequiresWorkspace(t *testing.T) {
	client := newTestClient(t, "", func(req capturedRequest) string {
		t.Error("no request expected")
		return ""
	})

	_, err := client.CreateProject(context.Background(), models.UnifiedCreateProjectParams{Name: "x"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindConfiguration))
}

func TestListTasks_BuildsFilter(t *testing.T) {
	client := newTestClient(t, "", func(req capturedRequest) string {
		filter, ok := req.Variables["filter"].(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, map[string]interface{}{"id": map[string]interface{}{"eq": "p1"}}, filter["project"])
		assert.Equal(t, map[string]interface{}{"name": map[string]interface{}{"eqIgnoreCase": "Todo"}}, filter["state"])
		return `{"data":{"issues":{"nodes":[{"id":"i1","identifier":"ENG-9","title":"Task","state":{"name":"Todo"},"project":{"id":"p1"}}]}}}`
	})

	tasks, err := client.ListTasks(context.Background(), models.UnifiedTaskQuery{ProjectID: "p1", Status: "Todo"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "ENG-9", tasks[0].ID)
	assert.Equal(t, "p1", tasks[0].ProjectID)
	assert.Equal(t, "Todo", tasks[0].Status)
}

func TestMoveTask_NotImplemented(t *testing.T) {
	client := NewClient("lin_key", "", nil)

	_, err := client.MoveTask(context.Background(), models.UnifiedMoveTaskParams{TaskID: "x", TargetStatus: "Done"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindNotImplemented))
	assert.Contains(t, err.Error(), "Linear")
}
