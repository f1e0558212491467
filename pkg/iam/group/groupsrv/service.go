package groupsrv

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam/domaincfg"
	"github.com/idforge/idforge/pkg/iam/group"
	"github.com/idforge/idforge/pkg/iam/org"
	"github.com/idforge/idforge/pkg/iam/team"
	"github.com/idforge/idforge/pkg/kernel"
)

const maxNameLen = 100

// GroupService manages groups and team-to-group assignment. Every operation
// is gated on the domain's groups feature flag; the HTTP layer additionally
// requires the groups:manage scope for mutations.
type GroupService struct {
	groupRepo group.Repository
	teamRepo  team.Repository
	orgRepo   org.Repository
	cfg       domaincfg.Resolver
}

func NewGroupService(
	groupRepo group.Repository,
	teamRepo team.Repository,
	orgRepo org.Repository,
	cfg domaincfg.Resolver,
) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		teamRepo:  teamRepo,
		orgRepo:   orgRepo,
		cfg:       cfg,
	}
}

// Create adds a group to the organisation. Caller must hold owner or admin.
func (s *GroupService) Create(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, name, description string) (*group.Group, error) {
	settings, err := s.resolveSettings(ctx, domain)
	if err != nil {
		return nil, err
	}

	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return nil, err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return nil, group.ErrInvalidName()
	}

	count, err := s.groupRepo.CountByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if count >= settings.Limits.MaxGroups {
		return nil, group.ErrGroupLimit().WithDetail("limit", settings.Limits.MaxGroups)
	}

	now := time.Now().UTC()
	g := group.Group{
		ID:          kernel.NewGroupID(uuid.NewString()),
		OrgID:       orgID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.groupRepo.Create(ctx, g); err != nil {
		return nil, err
	}

	return &g, nil
}

// Get returns a group scoped to its organisation and domain.
func (s *GroupService) Get(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, groupID kernel.GroupID) (*group.Group, error) {
	if _, err := s.resolveSettings(ctx, domain); err != nil {
		return nil, err
	}
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return nil, err
	}
	return s.groupRepo.FindByID(ctx, groupID, orgID)
}

// List pages through the organisation's groups.
func (s *GroupService) List(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, cursor string, limit int) (kernel.Page[group.Group], error) {
	if _, err := s.resolveSettings(ctx, domain); err != nil {
		return kernel.Page[group.Group]{}, err
	}
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return kernel.Page[group.Group]{}, err
	}

	limit = kernel.ClampPageSize(limit)
	items, err := s.groupRepo.List(ctx, orgID, kernel.DecodeCursor(cursor), limit)
	if err != nil {
		return kernel.Page[group.Group]{}, err
	}
	return kernel.NewPage(items, limit, func(g group.Group) string { return g.ID.String() }), nil
}

// Update renames a group.
func (s *GroupService) Update(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, groupID kernel.GroupID, name, description string) (*group.Group, error) {
	if _, err := s.resolveSettings(ctx, domain); err != nil {
		return nil, err
	}
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return nil, err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return nil, err
	}

	g, err := s.groupRepo.FindByID(ctx, groupID, orgID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return nil, group.ErrInvalidName()
	}

	if err := s.groupRepo.Update(ctx, groupID, orgID, name, description); err != nil {
		return nil, err
	}

	g.Name = name
	g.Description = description
	g.UpdatedAt = time.Now().UTC()
	return g, nil
}

// Delete removes a group. Teams assigned to it are detached in the same
// transaction and keep existing.
func (s *GroupService) Delete(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, groupID kernel.GroupID) error {
	if _, err := s.resolveSettings(ctx, domain); err != nil {
		return err
	}
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return err
	}

	if _, err := s.groupRepo.FindByID(ctx, groupID, orgID); err != nil {
		return err
	}

	return s.groupRepo.DeleteClearingTeams(ctx, groupID, orgID)
}

// AssignTeam attaches a team to the group, or detaches it when groupID is
// nil. Both the team and the group must belong to the organisation.
func (s *GroupService) AssignTeam(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, teamID kernel.TeamID, groupID *kernel.GroupID) error {
	if _, err := s.resolveSettings(ctx, domain); err != nil {
		return err
	}
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return err
	}

	if _, err := s.teamRepo.FindByID(ctx, teamID, orgID); err != nil {
		return err
	}
	if groupID != nil {
		if _, err := s.groupRepo.FindByID(ctx, *groupID, orgID); err != nil {
			return err
		}
	}

	return s.groupRepo.AssignTeam(ctx, orgID, teamID, groupID)
}

// AddMember enrolls an organisation member in the group.
func (s *GroupService) AddMember(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, groupID kernel.GroupID, targetUserID kernel.UserID, isAdmin bool) (*group.Member, error) {
	settings, err := s.resolveSettings(ctx, domain)
	if err != nil {
		return nil, err
	}

	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return nil, err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return nil, err
	}

	if _, err := s.groupRepo.FindByID(ctx, groupID, orgID); err != nil {
		return nil, err
	}

	if _, err := s.orgRepo.FindMember(ctx, orgID, targetUserID); err != nil {
		if errx.IsCode(err, org.CodeMemberNotFound) {
			return nil, group.ErrNotOrgMember().WithDetail("user_id", targetUserID.String())
		}
		return nil, err
	}

	count, err := s.groupRepo.CountMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if count >= settings.Limits.MaxGroupMembers {
		return nil, group.ErrMemberLimit().WithDetail("limit", settings.Limits.MaxGroupMembers)
	}

	m := group.Member{
		GroupID:   groupID,
		UserID:    targetUserID,
		IsAdmin:   isAdmin,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.groupRepo.AddMember(ctx, m); err != nil {
		return nil, err
	}

	return &m, nil
}

// ListMembers pages through a group's members.
func (s *GroupService) ListMembers(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, groupID kernel.GroupID, cursor string, limit int) (kernel.Page[group.Member], error) {
	if _, err := s.resolveSettings(ctx, domain); err != nil {
		return kernel.Page[group.Member]{}, err
	}
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return kernel.Page[group.Member]{}, err
	}
	if _, err := s.groupRepo.FindByID(ctx, groupID, orgID); err != nil {
		return kernel.Page[group.Member]{}, err
	}

	limit = kernel.ClampPageSize(limit)
	items, err := s.groupRepo.ListMembers(ctx, groupID, kernel.DecodeCursor(cursor), limit)
	if err != nil {
		return kernel.Page[group.Member]{}, err
	}
	return kernel.NewPage(items, limit, func(m group.Member) string { return m.UserID.String() }), nil
}

// SetAdmin flips a member's group admin flag.
func (s *GroupService) SetAdmin(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, groupID kernel.GroupID, targetUserID kernel.UserID, isAdmin bool) error {
	if _, err := s.resolveSettings(ctx, domain); err != nil {
		return err
	}
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return err
	}

	if _, err := s.groupRepo.FindMember(ctx, groupID, targetUserID); err != nil {
		return err
	}

	return s.groupRepo.SetMemberAdmin(ctx, groupID, targetUserID, isAdmin)
}

// RemoveMember takes a user out of the group. Group membership carries no
// floor: unlike teams, a user may belong to no group at all.
func (s *GroupService) RemoveMember(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, groupID kernel.GroupID, targetUserID kernel.UserID) error {
	if _, err := s.resolveSettings(ctx, domain); err != nil {
		return err
	}
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return err
	}

	if _, err := s.groupRepo.FindByID(ctx, groupID, orgID); err != nil {
		return err
	}

	return s.groupRepo.RemoveMember(ctx, groupID, targetUserID)
}

// resolveSettings applies the groups feature gate.
func (s *GroupService) resolveSettings(ctx context.Context, domain kernel.Domain) (*domaincfg.Settings, error) {
	settings, err := s.cfg.Resolve(ctx, domain)
	if err != nil {
		return nil, domaincfg.ErrResolveFailed(err)
	}
	if !settings.GroupsEnabled {
		return nil, group.ErrFeatureDisabled().WithDetail("domain", domain.String())
	}
	return settings, nil
}

func (s *GroupService) requireOrgManager(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) error {
	caller, err := s.orgRepo.FindMember(ctx, orgID, userID)
	if err != nil {
		if errx.IsCode(err, org.CodeMemberNotFound) {
			return group.ErrForbidden()
		}
		return err
	}
	if !caller.CanManageMembers() {
		return group.ErrForbidden()
	}
	return nil
}
