package github

import (
	"errors"
	"strings"

	"github.com/ternarybob/kirei/internal/models"
)

var (
	ErrRepositoryRequired = errors.New("repository is required")
	ErrOwnerMissing       = errors.New("repository owner missing")
	ErrRepoNameMissing    = errors.New("repository name missing")
)

// Repository is an "owner/name" pair
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository splits "owner/name" on the first slash. Everything after it
// belongs to the name.
func ParseRepository(repo string) (Repository, error) {
	owner, name, _ := strings.Cut(repo, "/")
	if owner == "" {
		return Repository{}, ErrOwnerMissing
	}
	if name == "" {
		return Repository{}, ErrRepoNameMissing
	}
	return Repository{Owner: owner, Name: name}, nil
}

// resolveRepo applies the override-then-default rule and wraps parse
// failures in a configuration error
func (c *Client) resolveRepo(override string) (Repository, error) {
	repo := models.FirstNonEmpty(override, c.defaultRepo)
	if repo == "" {
		return Repository{}, models.NewConfigurationError(models.ProviderGitHub, "no repository given and no default_repo configured", ErrRepositoryRequired)
	}
	parsed, err := ParseRepository(repo)
	if err != nil {
		return Repository{}, models.NewConfigurationError(models.ProviderGitHub, "invalid repository '"+repo+"'", err)
	}
	return parsed, nil
}
