// Package auth acquires provider credentials through the browser-based OAuth
// authorization-code flow with a loopback redirect listener.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/ternarybob/kirei/internal/common"
	"github.com/ternarybob/kirei/internal/models"
)

const (
	// DefaultTimeout bounds the wait for the browser redirect
	DefaultTimeout = 300 * time.Second

	callbackPath    = "/callback"
	shutdownTimeout = 2 * time.Second
)

const callbackPage = `<html><body><h1>Authentication Complete</h1><p>You can close this window and return to the terminal.</p></body></html>`

// FlowState is a step of one authorization attempt
type FlowState string

const (
	StateIdle             FlowState = "idle"
	StateAwaitingRedirect FlowState = "awaiting_redirect"
	StateCodeReceived     FlowState = "code_received"
	StateTokenExchanged   FlowState = "token_exchanged"
	StateFailed           FlowState = "failed"
)

// FlowConfig identifies the OAuth application. A zero Endpoint means GitHub.
type FlowConfig struct {
	Provider     models.ProviderID
	ClientID     string
	ClientSecret string
	Scopes       []string
	Endpoint     oauth2.Endpoint
}

// FlowOption configures a LoopbackFlow
type FlowOption func(*LoopbackFlow)

// WithExchangeClient sets the HTTP client used for the token exchange
func WithExchangeClient(client *http.Client) FlowOption {
	return func(f *LoopbackFlow) {
		if client != nil {
			f.exchangeClient = client
		}
	}
}

// WithEndpoint overrides the authorization and token URLs
func WithEndpoint(endpoint oauth2.Endpoint) FlowOption {
	return func(f *LoopbackFlow) {
		f.oauth.Endpoint = endpoint
		f.oauth.Endpoint.AuthStyle = oauth2.AuthStyleInParams
	}
}

type callbackResult struct {
	code  string
	state string
}

// LoopbackFlow runs one authorization attempt: Start, WaitForCode, Exchange.
// A flow is single use; retry by building a new one.
type LoopbackFlow struct {
	provider       models.ProviderID
	oauth          *oauth2.Config
	exchangeClient *http.Client
	logger         arbor.ILogger

	stateToken string
	server     *http.Server
	codeCh     chan callbackResult
	doneCh     chan struct{}
	signalOnce sync.Once

	mu      sync.Mutex
	current FlowState
}

// NewLoopbackFlow creates an idle flow
func NewLoopbackFlow(cfg FlowConfig, logger arbor.ILogger, opts ...FlowOption) *LoopbackFlow {
	if logger == nil {
		logger = common.GetLogger()
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = githuboauth.Endpoint
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	provider := cfg.Provider
	if provider == "" {
		provider = models.ProviderGitHub
	}

	f := &LoopbackFlow{
		provider: provider,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		exchangeClient: &http.Client{Timeout: 30 * time.Second},
		logger:         logger.WithCorrelationId(common.NewCorrelationID()),
		codeCh:         make(chan callbackResult, 1),
		doneCh:         make(chan struct{}, 1),
		current:        StateIdle,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// State returns the current step
func (f *LoopbackFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *LoopbackFlow) transition(next FlowState) {
	f.mu.Lock()
	previous := f.current
	f.current = next
	f.mu.Unlock()

	f.logger.Debug().
		Str("provider", string(f.provider)).
		Str("from", string(previous)).
		Str("to", string(next)).
		Msg("OAuth flow state change")
}

// Start binds an OS-assigned loopback port, starts the callback listener and
// returns the authorization URL for the user to open
func (f *LoopbackFlow) Start(ctx context.Context) (string, error) {
	if state := f.State(); state != StateIdle {
		return "", models.NewConfigurationError(f.provider, fmt.Sprintf("oauth flow already started (state %s)", state), nil)
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return "", models.NewTransportError(f.provider, "failed to bind callback listener", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	f.oauth.RedirectURL = fmt.Sprintf("http://localhost:%d%s", port, callbackPath)
	f.stateToken = common.NewStateToken()
	authURL := f.oauth.AuthCodeURL(f.stateToken)

	server := &http.Server{
		Handler:           http.HandlerFunc(f.handleCallback),
		ReadHeaderTimeout: 10 * time.Second,
	}

	f.mu.Lock()
	f.server = server
	f.mu.Unlock()

	common.SafeGo(f.logger, "oauth-callback-listener", func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Warn().Err(err).Msg("OAuth callback listener stopped")
		}
	})

	f.logger.Info().
		Str("provider", string(f.provider)).
		Int("port", port).
		Msg("OAuth callback listener started")

	f.transition(StateAwaitingRedirect)
	return authURL, nil
}

// handleCallback answers every request with the static page. Only the first
// request counts: its code (if any) is queued strictly before the completion
// signal.
func (f *LoopbackFlow) handleCallback(w http.ResponseWriter, r *http.Request) {
	var result *callbackResult
	if r.URL.Path == callbackPath {
		query := r.URL.Query()
		if code := query.Get("code"); code != "" {
			result = &callbackResult{code: code, state: query.Get("state")}
		}
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(callbackPage))
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	f.signalOnce.Do(func() {
		if result != nil {
			f.codeCh <- *result
		}
		f.doneCh <- struct{}{}
	})
}

// WaitForCode blocks until the first request reaches the listener, the
// timeout elapses or ctx ends. The listener is shut down on every path.
func (f *LoopbackFlow) WaitForCode(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.doneCh:
	case <-timer.C:
		f.Close()
		f.transition(StateFailed)
		f.logger.Warn().Str("timeout", timeout.String()).Msg("OAuth authorization timed out")
		return "", models.NewAuthorizationTimedOut(f.provider)
	case <-ctx.Done():
		f.Close()
		f.transition(StateFailed)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", models.NewAuthorizationTimedOut(f.provider)
		}
		return "", models.NewAuthorizationExchangeFailed(f.provider, "authorization cancelled", ctx.Err())
	}

	f.Close()

	var result callbackResult
	select {
	case result = <-f.codeCh:
	default:
		f.transition(StateFailed)
		return "", models.NewAuthorizationExchangeFailed(f.provider, "failed to receive code", nil)
	}

	if result.state != f.stateToken {
		f.transition(StateFailed)
		return "", models.NewAuthorizationExchangeFailed(f.provider, "state mismatch in callback", nil)
	}

	f.transition(StateCodeReceived)
	return result.code, nil
}

// Exchange trades the code for an access token with a server-to-server POST
// carrying client_id, client_secret and code, asking for a JSON reply
func (f *LoopbackFlow) Exchange(ctx context.Context, code string) (string, error) {
	client := *f.exchangeClient
	client.Transport = &acceptJSONTransport{base: f.exchangeClient.Transport}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &client)

	token, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		f.transition(StateFailed)
		return "", f.exchangeError(err)
	}
	if token.AccessToken == "" {
		f.transition(StateFailed)
		return "", models.NewAuthorizationExchangeFailed(f.provider, "no access token in response", nil)
	}

	f.transition(StateTokenExchanged)
	f.logger.Info().
		Str("provider", string(f.provider)).
		Str("token_type", token.Type()).
		Msg("OAuth token exchanged")
	return token.AccessToken, nil
}

func (f *LoopbackFlow) exchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		detail := models.FirstNonEmpty(retrieveErr.ErrorDescription, retrieveErr.ErrorCode, "token endpoint rejected the code")
		return models.NewAuthorizationExchangeFailed(f.provider, detail, err)
	}
	if strings.Contains(err.Error(), "missing access_token") {
		return models.NewAuthorizationExchangeFailed(f.provider, "no access token in response", err)
	}
	return models.NewAuthorizationExchangeFailed(f.provider, "token request failed", err)
}

// Run performs the whole flow. display receives the authorization URL.
func (f *LoopbackFlow) Run(ctx context.Context, timeout time.Duration, display func(authURL string)) (string, error) {
	defer f.Close()

	authURL, err := f.Start(ctx)
	if err != nil {
		return "", err
	}
	if display != nil {
		display(authURL)
	}

	code, err := f.WaitForCode(ctx, timeout)
	if err != nil {
		return "", err
	}

	return f.Exchange(ctx, code)
}

// Close shuts the callback listener down. Safe to call more than once.
func (f *LoopbackFlow) Close() {
	f.mu.Lock()
	server := f.server
	f.server = nil
	f.mu.Unlock()

	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		f.logger.Warn().Err(err).Msg("OAuth callback listener shutdown incomplete")
		server.Close()
	}
}

// acceptJSONTransport asks the token endpoint for JSON; GitHub otherwise
// answers form-encoded
type acceptJSONTransport struct {
	base http.RoundTripper
}

func (t *acceptJSONTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Accept", "application/json")
	return base.RoundTrip(clone)
}
