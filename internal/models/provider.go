package models

import (
	"fmt"
	"strings"
)

// ProviderID identifies one of the supported issue trackers
type ProviderID string

const (
	ProviderGitHub ProviderID = "github"
	ProviderLinear ProviderID = "linear"
	ProviderTrello ProviderID = "trello"
	ProviderJira   ProviderID = "jira"
)

// AllProviders returns every supported provider in display order
func AllProviders() []ProviderID {
	return []ProviderID{ProviderGitHub, ProviderLinear, ProviderTrello, ProviderJira}
}

// UnknownProviderError reports text that names none of the known providers
type UnknownProviderError struct {
	Text string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider '%s'", e.Text)
}

// ParseProvider matches text case-insensitively against the known provider tags
func ParseProvider(text string) (ProviderID, error) {
	switch strings.ToLower(text) {
	case "github":
		return ProviderGitHub, nil
	case "linear":
		return ProviderLinear, nil
	case "trello":
		return ProviderTrello, nil
	case "jira":
		return ProviderJira, nil
	default:
		return "", &UnknownProviderError{Text: text}
	}
}

// Valid reports whether p is one of the known providers
func (p ProviderID) Valid() bool {
	switch p {
	case ProviderGitHub, ProviderLinear, ProviderTrello, ProviderJira:
		return true
	}
	return false
}

// EnvVar returns the environment variable consulted for this provider's token
func (p ProviderID) EnvVar() string {
	switch p {
	case ProviderGitHub:
		return "KIREI_GITHUB_TOKEN"
	case ProviderLinear:
		return "KIREI_LINEAR_TOKEN"
	case ProviderTrello:
		return "KIREI_TRELLO_TOKEN"
	case ProviderJira:
		return "KIREI_JIRA_TOKEN"
	default:
		return ""
	}
}

// DisplayName returns the provider's human-facing name
func (p ProviderID) DisplayName() string {
	switch p {
	case ProviderGitHub:
		return "GitHub"
	case ProviderLinear:
		return "Linear"
	case ProviderTrello:
		return "Trello"
	case ProviderJira:
		return "Jira"
	default:
		return string(p)
	}
}

func (p ProviderID) String() string {
	return p.DisplayName()
}

// MarshalText keeps the lowercase tag on the wire (config keys, JSON)
func (p ProviderID) MarshalText() ([]byte, error) {
	return []byte(p), nil
}

// UnmarshalText rejects unknown provider tags when decoding config or JSON
func (p *ProviderID) UnmarshalText(text []byte) error {
	parsed, err := ParseProvider(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
