// Package credentials selects the token used for each provider call.
package credentials

import (
	"os"
	"strings"

	"github.com/ternarybob/kirei/internal/interfaces"
	"github.com/ternarybob/kirei/internal/models"
)

// Resolver resolves provider tokens. Nothing is cached: every call re-reads
// the environment so a freshly exported variable wins immediately.
type Resolver struct {
	lookupEnv func(string) (string, bool)
}

// NewResolver creates a resolver backed by the process environment
func NewResolver() *Resolver {
	return &Resolver{lookupEnv: os.LookupEnv}
}

// NewResolverWithEnv creates a resolver backed by a custom environment lookup
func NewResolverWithEnv(lookupEnv func(string) (string, bool)) *Resolver {
	return &Resolver{lookupEnv: lookupEnv}
}

// ResolveToken returns the provider's token. The environment variable named by
// provider.EnvVar() wins when it is non-blank after trimming; otherwise the
// stored credential is used. With neither, a missing-credential error naming
// the provider is returned.
func (r *Resolver) ResolveToken(provider models.ProviderID, store interfaces.CredentialView) (string, error) {
	if name := provider.EnvVar(); name != "" {
		if value, ok := r.lookupEnv(name); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed, nil
			}
		}
	}

	if store != nil {
		if token, ok := store.Token(provider); ok {
			return token, nil
		}
	}

	return "", models.NewMissingCredential(provider)
}

// Source reports where the token for provider would come from: "env",
// "config" or "" when none is available
func (r *Resolver) Source(provider models.ProviderID, store interfaces.CredentialView) string {
	if value, ok := r.lookupEnv(provider.EnvVar()); ok && strings.TrimSpace(value) != "" {
		return "env"
	}
	if store != nil {
		if _, ok := store.Token(provider); ok {
			return "config"
		}
	}
	return ""
}
