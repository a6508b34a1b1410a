package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories surfaced by provider
// adapters and the OAuth flow
type ErrorKind string

const (
	ErrKindMissingCredential           ErrorKind = "missing_credential"
	ErrKindConfiguration               ErrorKind = "configuration"
	ErrKindUnexpectedResponse          ErrorKind = "unexpected_response"
	ErrKindTransport                   ErrorKind = "transport"
	ErrKindNotImplemented              ErrorKind = "not_implemented"
	ErrKindAuthorizationTimedOut       ErrorKind = "authorization_timed_out"
	ErrKindAuthorizationExchangeFailed ErrorKind = "authorization_exchange_failed"
)

// UnifiedError is returned for every failure that crosses the provider boundary.
// Body is only populated for unexpected responses and holds the provider's
// response text verbatim.
type UnifiedError struct {
	Kind     ErrorKind
	Provider ProviderID
	Detail   string
	Body     string
	Err      error
}

func (e *UnifiedError) Error() string {
	switch e.Kind {
	case ErrKindMissingCredential:
		return fmt.Sprintf("missing credentials for %s (set %s or run the auth flow for %s)",
			e.Provider.DisplayName(), e.Provider.EnvVar(), e.Provider)
	case ErrKindNotImplemented:
		if e.Detail != "" {
			return fmt.Sprintf("provider %s does not support %s yet", e.Provider.DisplayName(), e.Detail)
		}
		return fmt.Sprintf("provider %s is not implemented yet", e.Provider.DisplayName())
	case ErrKindUnexpectedResponse:
		return fmt.Sprintf("%s response is malformed: %s", e.providerName(), e.Body)
	case ErrKindConfiguration:
		return fmt.Sprintf("configuration error: %s", e.withCause(e.Detail))
	case ErrKindTransport:
		return fmt.Sprintf("%s request failed: %s", e.providerName(), e.withCause(e.Detail))
	case ErrKindAuthorizationTimedOut:
		return fmt.Sprintf("%s authorization timed out", e.providerName())
	case ErrKindAuthorizationExchangeFailed:
		return fmt.Sprintf("%s authorization failed: %s", e.providerName(), e.withCause(e.Detail))
	default:
		return e.withCause(e.Detail)
	}
}

func (e *UnifiedError) Unwrap() error {
	return e.Err
}

func (e *UnifiedError) providerName() string {
	if e.Provider == "" {
		return "provider"
	}
	return e.Provider.DisplayName()
}

func (e *UnifiedError) withCause(detail string) string {
	switch {
	case e.Err == nil:
		return detail
	case detail == "":
		return e.Err.Error()
	default:
		return detail + ": " + e.Err.Error()
	}
}

// IsKind reports whether err (or anything it wraps) is a UnifiedError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var ue *UnifiedError
	if errors.As(err, &ue) {
		return ue.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first UnifiedError in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var ue *UnifiedError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

func NewMissingCredential(provider ProviderID) *UnifiedError {
	return &UnifiedError{Kind: ErrKindMissingCredential, Provider: provider}
}

func NewConfigurationError(provider ProviderID, detail string, cause error) *UnifiedError {
	return &UnifiedError{Kind: ErrKindConfiguration, Provider: provider, Detail: detail, Err: cause}
}

func NewUnexpectedResponse(provider ProviderID, body string) *UnifiedError {
	return &UnifiedError{Kind: ErrKindUnexpectedResponse, Provider: provider, Body: body}
}

func NewTransportError(provider ProviderID, detail string, cause error) *UnifiedError {
	return &UnifiedError{Kind: ErrKindTransport, Provider: provider, Detail: detail, Err: cause}
}

// NewNotImplemented reports a capability gap; capability may be empty when the
// whole provider is unsupported
func NewNotImplemented(provider ProviderID, capability string) *UnifiedError {
	return &UnifiedError{Kind: ErrKindNotImplemented, Provider: provider, Detail: capability}
}

func NewAuthorizationTimedOut(provider ProviderID) *UnifiedError {
	return &UnifiedError{Kind: ErrKindAuthorizationTimedOut, Provider: provider}
}

func NewAuthorizationExchangeFailed(provider ProviderID, detail string, cause error) *UnifiedError {
	return &UnifiedError{Kind: ErrKindAuthorizationExchangeFailed, Provider: provider, Detail: detail, Err: cause}
}
