package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/kirei/internal/models"
)

const (
	configDirName  = ".kirei"
	configFileName = "config.toml"
)

// Config represents the application configuration
type Config struct {
	DefaultProvider models.ProviderID            `toml:"default_provider" yaml:"default_provider"`
	Tokens          map[models.ProviderID]string `toml:"tokens" yaml:"tokens"` // Credential store: provider -> token
	GitHub          GitHubConfig                 `toml:"github" yaml:"github"`
	Linear          LinearConfig                 `toml:"linear" yaml:"linear"`
	Trello          TrelloConfig                 `toml:"trello" yaml:"trello"`
	Jira            JiraConfig                   `toml:"jira" yaml:"jira"`
	OAuth           OAuthConfig                  `toml:"oauth" yaml:"oauth"`
	HTTP            HTTPConfig                   `toml:"http" yaml:"http"`
	Logging         LoggingConfig                `toml:"logging" yaml:"logging"`
}

type GitHubConfig struct {
	DefaultRepo  string `toml:"default_repo" yaml:"default_repo"` // "owner/repo"
	ClientID     string `toml:"client_id" yaml:"client_id"`       // OAuth app client id for `auth login github`
	ClientSecret string `toml:"client_secret" yaml:"client_secret"`
	BaseURL      string `toml:"base_url" yaml:"base_url" validate:"omitempty,url"` // GitHub Enterprise API root
}

type LinearConfig struct {
	DefaultWorkspace string `toml:"default_workspace" yaml:"default_workspace"` // Team id passed as teamId/workspaceId
	BaseURL          string `toml:"base_url" yaml:"base_url" validate:"omitempty,url"`
}

type TrelloConfig struct {
	DefaultBoard string `toml:"default_board" yaml:"default_board"`
	APIKey       string `toml:"api_key" yaml:"api_key"` // Trello authenticates with key + token query parameters
	BaseURL      string `toml:"base_url" yaml:"base_url" validate:"omitempty,url"`
}

type JiraConfig struct {
	ServerURL      string `toml:"server_url" yaml:"server_url" validate:"omitempty,url"` // e.g. https://example.atlassian.net
	DefaultProject string `toml:"default_project" yaml:"default_project"`
	Email          string `toml:"email" yaml:"email" validate:"omitempty,email"` // Basic auth user; the token is the password
}

type OAuthConfig struct {
	Timeout string `toml:"timeout" yaml:"timeout"` // How long to wait for the browser redirect (default: "300s")
	Scope   string `toml:"scope" yaml:"scope"`
}

type HTTPConfig struct {
	Timeout   string `toml:"timeout" yaml:"timeout"`                             // Per-request timeout (default: "30s")
	RateLimit int    `toml:"rate_limit" yaml:"rate_limit" validate:"gte=0,lte=100"` // Requests per second per adapter, 0 disables
}

type LoggingConfig struct {
	Level  string   `toml:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Output []string `toml:"output" yaml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		DefaultProvider: models.ProviderGitHub,
		Tokens:          map[models.ProviderID]string{},
		OAuth: OAuthConfig{
			Timeout: "300s",
			Scope:   "repo",
		},
		HTTP: HTTPConfig{
			Timeout:   "30s",
			RateLimit: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// DefaultConfigDir returns ~/.kirei
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine a home directory for this platform: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// DefaultConfigPath returns the config file path, honouring KIREI_CONFIG
func DefaultConfigPath() (string, error) {
	if path := os.Getenv("KIREI_CONFIG"); path != "" {
		return path, nil
	}
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadFromFile loads configuration with priority: default -> file -> env.
// A missing file is not an error; the defaults (plus env) are returned.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. Files ending in .yaml/.yml are decoded as YAML, everything else as TOML.
func LoadFromFiles(paths ...string) (*Config, error) {
	return loadFiles(true, paths...)
}

// LoadFileOnly loads defaults -> file without environment overrides. Writers
// use it so values that only exist in the environment are never saved.
func LoadFileOnly(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return loadFiles(false)
	}
	return loadFiles(false, path)
}

func loadFiles(withEnv bool, paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := decodeConfig(path, data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if config.Tokens == nil {
		config.Tokens = map[models.ProviderID]string{}
	}

	if withEnv {
		applyEnvOverrides(config)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func decodeConfig(path string, data []byte, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	default:
		return toml.Unmarshal(data, config)
	}
}

// applyEnvOverrides applies environment variable overrides to config.
// Provider tokens are deliberately not folded in here; the credential
// resolver reads them on every call.
func applyEnvOverrides(config *Config) {
	if provider := os.Getenv("KIREI_DEFAULT_PROVIDER"); provider != "" {
		if p, err := models.ParseProvider(provider); err == nil {
			config.DefaultProvider = p
		}
	}

	if repo := os.Getenv("KIREI_GITHUB_REPO"); repo != "" {
		config.GitHub.DefaultRepo = repo
	}
	if clientID := os.Getenv("KIREI_GITHUB_CLIENT_ID"); clientID != "" {
		config.GitHub.ClientID = clientID
	}
	if clientSecret := os.Getenv("KIREI_GITHUB_CLIENT_SECRET"); clientSecret != "" {
		config.GitHub.ClientSecret = clientSecret
	}

	if workspace := os.Getenv("KIREI_LINEAR_WORKSPACE"); workspace != "" {
		config.Linear.DefaultWorkspace = workspace
	}

	if board := os.Getenv("KIREI_TRELLO_BOARD"); board != "" {
		config.Trello.DefaultBoard = board
	}
	if apiKey := os.Getenv("KIREI_TRELLO_API_KEY"); apiKey != "" {
		config.Trello.APIKey = apiKey
	}

	if serverURL := os.Getenv("KIREI_JIRA_SERVER_URL"); serverURL != "" {
		config.Jira.ServerURL = serverURL
	}
	if project := os.Getenv("KIREI_JIRA_PROJECT"); project != "" {
		config.Jira.DefaultProject = project
	}
	if email := os.Getenv("KIREI_JIRA_EMAIL"); email != "" {
		config.Jira.Email = email
	}

	if timeout := os.Getenv("KIREI_OAUTH_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.OAuth.Timeout = timeout
		}
	}

	if rateLimit := os.Getenv("KIREI_HTTP_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.HTTP.RateLimit = rl
		}
	}

	if level := os.Getenv("KIREI_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("KIREI_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, logLevel string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

// Validate checks field formats using the validate struct tags
func (c *Config) Validate() error {
	if c.DefaultProvider != "" && !c.DefaultProvider.Valid() {
		return fmt.Errorf("invalid config: unknown default_provider '%s'", c.DefaultProvider)
	}
	// Map keys bypass UnmarshalText during decode, so check them here
	for provider := range c.Tokens {
		if !provider.Valid() {
			return fmt.Errorf("invalid config: unknown provider in [tokens] '%s'", string(provider))
		}
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Token implements interfaces.CredentialView
func (c *Config) Token(provider models.ProviderID) (string, bool) {
	token, ok := c.Tokens[provider]
	return token, ok
}

// SetToken records a credential in the store; the caller persists it with Save
func (c *Config) SetToken(provider models.ProviderID, token string) {
	if c.Tokens == nil {
		c.Tokens = map[models.ProviderID]string{}
	}
	c.Tokens[provider] = strings.TrimSpace(token)
}

// ScopeDefaults projects the per-provider defaults the dispatcher needs
func (c *Config) ScopeDefaults() models.ScopeDefaults {
	return models.ScopeDefaults{
		Repo:          c.GitHub.DefaultRepo,
		Workspace:     c.Linear.DefaultWorkspace,
		Board:         c.Trello.DefaultBoard,
		Project:       c.Jira.DefaultProject,
		TrelloAPIKey:  c.Trello.APIKey,
		JiraServerURL: c.Jira.ServerURL,
		JiraEmail:     c.Jira.Email,
	}
}

// OAuthTimeout parses oauth.timeout, falling back to 300s
func (c *Config) OAuthTimeout() time.Duration {
	return parseDurationOr(c.OAuth.Timeout, 300*time.Second)
}

// HTTPTimeout parses http.timeout, falling back to 30s
func (c *Config) HTTPTimeout() time.Duration {
	return parseDurationOr(c.HTTP.Timeout, 30*time.Second)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Save writes the configuration as TOML (or YAML for .yaml/.yml paths),
// creating the parent directory when needed
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", filepath.Dir(path), err)
	}

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		out, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to serialize config as YAML: %w", err)
		}
		data = out
	default:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("failed to serialize config as TOML: %w", err)
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
