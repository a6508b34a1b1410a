package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewStateToken returns a 32 character lowercase hex token used as the OAuth
// state parameter
func NewStateToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewCorrelationID tags one CLI or MCP invocation in the logs
func NewCorrelationID() string {
	return "req_" + uuid.NewString()
}
