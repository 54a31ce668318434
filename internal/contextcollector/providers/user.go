package providers

import (
	"context"
	"fmt"

	"github.com/hive-corporation/sentryline/pkg/models"
)

// DirectoryProvider is a mock-friendly stand-in for an LDAP/AD lookup.
type DirectoryProvider struct {
	users map[string]models.UserContext
}

func NewDirectoryProvider(seed map[string]models.UserContext) *DirectoryProvider {
	if seed == nil {
		seed = map[string]models.UserContext{}
	}
	return &DirectoryProvider{users: seed}
}

func (p *DirectoryProvider) Name() string { return "directory" }

func (p *DirectoryProvider) Lookup(ctx context.Context, userID string) (models.UserContext, error) {
	if userID == "" {
		return models.UserContext{}, fmt.Errorf("directory: empty user_id")
	}
	if uc, ok := p.users[userID]; ok {
		return uc, nil
	}
	return models.UserContext{
		PrivilegeLevel: "standard",
		AccountStatus:  "unknown",
	}, nil
}
