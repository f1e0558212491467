package orgctx

import (
	"context"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam/domaincfg"
	"github.com/idforge/idforge/pkg/iam/group"
	"github.com/idforge/idforge/pkg/iam/org"
	"github.com/idforge/idforge/pkg/iam/team"
	"github.com/idforge/idforge/pkg/iam/token"
	"github.com/idforge/idforge/pkg/kernel"
)

// Resolver assembles the organisation claims embedded in access tokens. It
// returns nil, without error, when the user holds no membership on the domain
// or multi-tenant features are disabled; the token then carries no org block
// at all.
type Resolver struct {
	orgRepo   org.Repository
	teamRepo  team.Repository
	groupRepo group.Repository
	cfg       domaincfg.Resolver
}

func NewResolver(
	orgRepo org.Repository,
	teamRepo team.Repository,
	groupRepo group.Repository,
	cfg domaincfg.Resolver,
) *Resolver {
	return &Resolver{
		orgRepo:   orgRepo,
		teamRepo:  teamRepo,
		groupRepo: groupRepo,
		cfg:       cfg,
	}
}

// Resolve builds the claims for one user on one domain. Team and group
// lookups are bounded by the per-user caps, so the resulting block stays
// small enough to live inside a JWT.
func (r *Resolver) Resolve(ctx context.Context, userID kernel.UserID, domain kernel.Domain) (*token.OrgClaims, error) {
	settings, err := r.cfg.Resolve(ctx, domain)
	if err != nil {
		return nil, domaincfg.ErrResolveFailed(err)
	}
	if !settings.MultiTenantEnabled {
		return nil, nil
	}

	m, err := r.orgRepo.FindMemberByDomain(ctx, domain, userID)
	if err != nil {
		if errx.IsCode(err, org.CodeMemberNotFound) {
			return nil, nil
		}
		return nil, err
	}

	memberships, err := r.teamRepo.ListUserMemberships(ctx, m.OrgID, userID)
	if err != nil {
		return nil, err
	}

	// Enrollments can exceed a cap that was lowered after the fact; the claim
	// block never does.
	if limit := settings.Limits.MaxTeamsPerUser; limit > 0 && len(memberships) > limit {
		memberships = memberships[:limit]
	}

	claims := &token.OrgClaims{
		OrgID:     m.OrgID.String(),
		OrgRole:   m.Role,
		Teams:     make([]string, 0, len(memberships)),
		TeamRoles: make(map[string]string, len(memberships)),
	}
	for _, tm := range memberships {
		claims.Teams = append(claims.Teams, tm.TeamID.String())
		claims.TeamRoles[tm.TeamID.String()] = tm.Role
	}

	if settings.GroupsEnabled {
		groupMemberships, err := r.groupRepo.ListUserGroups(ctx, m.OrgID, userID)
		if err != nil {
			return nil, err
		}
		for _, gm := range groupMemberships {
			claims.Groups = append(claims.Groups, gm.GroupID.String())
			if gm.IsAdmin {
				claims.GroupAdmin = append(claims.GroupAdmin, gm.GroupID.String())
			}
		}
	}

	return claims, nil
}
