package domaincfg

import (
	"context"

	"github.com/idforge/idforge/pkg/config"
	"github.com/idforge/idforge/pkg/kernel"
)

// StaticResolver serves the same settings for every domain, sourced from the
// process configuration. Deployments with a real per-domain config service
// plug their own Resolver into the container instead.
type StaticResolver struct {
	settings Settings
}

func NewStaticResolver(cfg *config.TenantConfig) *StaticResolver {
	return &StaticResolver{
		settings: Settings{
			MultiTenantEnabled: cfg.MultiTenantEnabled,
			GroupsEnabled:      cfg.GroupsEnabled,
			Limits: Limits{
				MaxOrgMembers:   cfg.MaxOrgMembers,
				MaxTeams:        cfg.MaxTeams,
				MaxTeamMembers:  cfg.MaxTeamMembers,
				MaxGroups:       cfg.MaxGroups,
				MaxGroupMembers: cfg.MaxGroupMembers,
				MaxTeamsPerUser: cfg.MaxTeamsPerUser,
			},
			AllowedOrgRoles: cfg.AllowedOrgRoles,
		},
	}
}

func (r *StaticResolver) Resolve(ctx context.Context, domain kernel.Domain) (*Settings, error) {
	s := r.settings
	return &s, nil
}
