package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"

	"github.com/ternarybob/kirei/internal/common"
	"github.com/ternarybob/kirei/internal/models"
)

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}

// startFlow begins a flow and returns the parsed authorization URL
func startFlow(t *testing.T, flow *LoopbackFlow) *url.URL {
	t.Helper()
	authURL, err := flow.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(flow.Close)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	return parsed
}

// redirect simulates the browser following the provider redirect
func redirect(t *testing.T, authURL *url.URL, path string, query url.Values) string {
	t.Helper()
	redirectURI, err := url.Parse(authURL.Query().Get("redirect_uri"))
	require.NoError(t, err)

	target := redirectURI.Scheme + "://" + redirectURI.Host + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := http.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	return string(body)
}

func newTestFlow(opts ...FlowOption) *LoopbackFlow {
	return NewLoopbackFlow(FlowConfig{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		Scopes:       []string{"repo"},
	}, testLogger(), opts...)
}

func TestLoopbackFlow_AuthorizationURL(t *testing.T) {
	flow := newTestFlow()
	authURL := startFlow(t, flow)

	assert.Equal(t, "github.com", authURL.Host)
	assert.Equal(t, "/login/oauth/authorize", authURL.Path)

	query := authURL.Query()
	assert.Equal(t, "client-123", query.Get("client_id"))
	assert.Equal(t, "repo", query.Get("scope"))
	assert.Regexp(t, `^http://localhost:\d+/callback$`, query.Get("redirect_uri"))
	assert.Regexp(t, `^[0-9a-f]{32}$`, query.Get("state"))
	assert.Equal(t, StateAwaitingRedirect, flow.State())
}

func TestLoopbackFlow_StartTwice(t *testing.T) {
	flow := newTestFlow()
	startFlow(t, flow)

	_, err := flow.Start(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindConfiguration))
}

func TestLoopbackFlow_ReceivesDecodedCode(t *testing.T) {
	flow := newTestFlow()
	authURL := startFlow(t, flow)

	body := redirect(t, authURL, "/callback", url.Values{
		"code":  {"abc def+1/2"},
		"state": {authURL.Query().Get("state")},
	})
	assert.Contains(t, body, "Authentication Complete")

	code, err := flow.WaitForCode(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "abc def+1/2", code)
	assert.Equal(t, StateCodeReceived, flow.State())
}

func TestLoopbackFlow_FirstRequestWins(t *testing.T) {
	flow := newTestFlow()
	authURL := startFlow(t, flow)
	state := authURL.Query().Get("state")

	redirect(t, authURL, "/callback", url.Values{"code": {"first"}, "state": {state}})
	body := redirect(t, authURL, "/callback", url.Values{"code": {"second"}, "state": {state}})
	assert.Contains(t, body, "Authentication Complete")

	code, err := flow.WaitForCode(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", code)
}

func TestLoopbackFlow_RequestWithoutCode(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		query url.Values
	}{
		{name: "favicon", path: "/favicon.ico"},
		{name: "callback without code", path: "/callback", query: url.Values{"error": {"access_denied"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := newTestFlow()
			authURL := startFlow(t, flow)

			body := redirect(t, authURL, tt.path, tt.query)
			assert.Contains(t, body, "You can close this window")

			_, err := flow.WaitForCode(context.Background(), 5*time.Second)
			require.Error(t, err)
			assert.True(t, models.IsKind(err, models.ErrKindAuthorizationExchangeFailed))
			assert.Contains(t, err.Error(), "failed to receive code")
			assert.Equal(t, StateFailed, flow.State())
		})
	}
}

func TestLoopbackFlow_StateMismatch(t *testing.T) {
	flow := newTestFlow()
	authURL := startFlow(t, flow)

	redirect(t, authURL, "/callback", url.Values{"code": {"abc"}, "state": {"forged"}})

	_, err := flow.WaitForCode(context.Background(), 5*time.Second)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindAuthorizationExchangeFailed))
	assert.Contains(t, err.Error(), "state mismatch")
}

func TestLoopbackFlow_Timeout(t *testing.T) {
	flow := newTestFlow()
	authURL := startFlow(t, flow)

	start := time.Now()
	_, err := flow.WaitForCode(context.Background(), 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindAuthorizationTimedOut))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, StateFailed, flow.State())

	// The listener is gone once the wait ends
	redirectURI := authURL.Query().Get("redirect_uri")
	_, err = http.Get(redirectURI + "?code=late")
	assert.Error(t, err)
}

func TestLoopbackFlow_ContextCancelled(t *testing.T) {
	flow := newTestFlow()
	startFlow(t, flow)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := flow.WaitForCode(ctx, time.Minute)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindAuthorizationExchangeFailed))
	assert.ErrorIs(t, err, context.Canceled)
}

// tokenRequest is what the fake token endpoint last received
type tokenRequest struct {
	mu     sync.Mutex
	form   url.Values
	accept string
}

func (r *tokenRequest) get() (url.Values, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.form, r.accept
}

// tokenServer fakes the token endpoint
func tokenServer(t *testing.T, status int, response string) (*httptest.Server, *tokenRequest) {
	t.Helper()
	received := &tokenRequest{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())

		received.mu.Lock()
		received.form = r.PostForm
		received.accept = r.Header.Get("Accept")
		received.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)

	return server, received
}

func TestLoopbackFlow_Exchange(t *testing.T) {
	server, received := tokenServer(t, http.StatusOK,
		`{"access_token":"gho_abc","token_type":"bearer","scope":"repo"}`)

	flow := newTestFlow(WithEndpoint(oauth2.Endpoint{
		AuthURL:  server.URL + "/login/oauth/authorize",
		TokenURL: server.URL + "/login/oauth/access_token",
	}))

	token, err := flow.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "gho_abc", token)
	assert.Equal(t, StateTokenExchanged, flow.State())

	form, accept := received.get()
	assert.Equal(t, "client-123", form.Get("client_id"))
	assert.Equal(t, "secret-456", form.Get("client_secret"))
	assert.Equal(t, "the-code", form.Get("code"))
	assert.Equal(t, "application/json", accept)
}

func TestLoopbackFlow_ExchangeFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		response   string
		wantDetail string
	}{
		{
			name:       "missing access token",
			status:     http.StatusOK,
			response:   `{"token_type":"bearer"}`,
			wantDetail: "no access token in response",
		},
		{
			name:       "error in 200 body",
			status:     http.StatusOK,
			response:   `{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`,
			wantDetail: "The code passed is incorrect or expired.",
		},
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			response:   `{"error":"server_error"}`,
			wantDetail: "server_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := tokenServer(t, tt.status, tt.response)
			flow := newTestFlow(WithEndpoint(oauth2.Endpoint{
				AuthURL:  server.URL + "/authorize",
				TokenURL: server.URL + "/token",
			}))

			_, err := flow.Exchange(context.Background(), "code")
			require.Error(t, err)
			assert.True(t, models.IsKind(err, models.ErrKindAuthorizationExchangeFailed))
			assert.Contains(t, err.Error(), tt.wantDetail)
			assert.Equal(t, StateFailed, flow.State())
		})
	}
}

func TestLoopbackFlow_ExchangeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	tokenURL := server.URL + "/token"
	server.Close()

	flow := newTestFlow(WithEndpoint(oauth2.Endpoint{AuthURL: tokenURL, TokenURL: tokenURL}))

	_, err := flow.Exchange(context.Background(), "code")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindAuthorizationExchangeFailed))
}

// browserDisplay follows the authorization URL the way the provider would:
// straight to the redirect_uri with a code and the echoed state
func browserDisplay(t *testing.T, code string) func(string) {
	return func(authURL string) {
		parsed, err := url.Parse(authURL)
		if !assert.NoError(t, err) {
			return
		}
		query := parsed.Query()
		target := query.Get("redirect_uri") + "?" + url.Values{
			"code":  {code},
			"state": {query.Get("state")},
		}.Encode()

		common.SafeGo(testLogger(), "test-browser", func() {
			resp, err := http.Get(target)
			if assert.NoError(t, err) {
				resp.Body.Close()
			}
		})
	}
}

func TestLoopbackFlow_Run(t *testing.T) {
	server, received := tokenServer(t, http.StatusOK, `{"access_token":"gho_run","token_type":"bearer"}`)

	flow := newTestFlow(WithEndpoint(oauth2.Endpoint{
		AuthURL:  server.URL + "/authorize",
		TokenURL: server.URL + "/token",
	}))

	token, err := flow.Run(context.Background(), 5*time.Second, browserDisplay(t, "run-code"))
	require.NoError(t, err)
	assert.Equal(t, "gho_run", token)
	form, _ := received.get()
	assert.Equal(t, "run-code", form.Get("code"))
}

type memoryStore struct {
	tokens map[models.ProviderID]string
}

func (m *memoryStore) SetCredential(provider models.ProviderID, token string) error {
	if m.tokens == nil {
		m.tokens = map[models.ProviderID]string{}
	}
	m.tokens[provider] = token
	return nil
}

func TestService_LoginGitHub(t *testing.T) {
	server, _ := tokenServer(t, http.StatusOK, `{"access_token":"gho_login","token_type":"bearer"}`)

	cfg := common.NewDefaultConfig()
	cfg.GitHub.ClientID = "client-123"
	cfg.GitHub.ClientSecret = "secret-456"
	cfg.OAuth.Timeout = "5s"

	store := &memoryStore{}
	svc := NewService(cfg, store, testLogger(), WithEndpoint(oauth2.Endpoint{
		AuthURL:  server.URL + "/authorize",
		TokenURL: server.URL + "/token",
	}))

	var shown string
	display := browserDisplay(t, "login-code")
	err := svc.LoginGitHub(context.Background(), func(authURL string) {
		shown = authURL
		display(authURL)
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(shown, server.URL+"/authorize?"))
	assert.Equal(t, "gho_login", store.tokens[models.ProviderGitHub])
}

func TestService_LoginGitHubRequiresApp(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(common.NewDefaultConfig(), store, testLogger())

	err := svc.LoginGitHub(context.Background(), func(string) {
		t.Fatal("display must not be called without an OAuth app")
	})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrKindConfiguration))
	assert.Empty(t, store.tokens)
}
