package teamsrv

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/domaincfg"
	"github.com/idforge/idforge/pkg/iam/org"
	"github.com/idforge/idforge/pkg/iam/ratelimit"
	"github.com/idforge/idforge/pkg/iam/team"
	"github.com/idforge/idforge/pkg/iam/user"
	"github.com/idforge/idforge/pkg/kernel"
)

const maxNameLen = 100

// TeamService manages teams within an organisation: creation under the
// per-organisation cap, membership with per-team and per-user caps, and
// deletion with re-enrollment into the default team.
type TeamService struct {
	teamRepo team.Repository
	orgRepo  org.Repository
	userRepo user.Repository
	cfg      domaincfg.Resolver
	limiter  ratelimit.Limiter
}

func NewTeamService(
	teamRepo team.Repository,
	orgRepo org.Repository,
	userRepo user.Repository,
	cfg domaincfg.Resolver,
	limiter ratelimit.Limiter,
) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		orgRepo:  orgRepo,
		userRepo: userRepo,
		cfg:      cfg,
		limiter:  limiter,
	}
}

// Create adds a team to the organisation. Caller must hold owner or admin.
func (s *TeamService) Create(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, name, description string) (*team.Team, error) {
	settings, err := s.cfg.Resolve(ctx, domain)
	if err != nil {
		return nil, domaincfg.ErrResolveFailed(err)
	}

	if err := s.checkRate(ctx, "team:create:"+orgID.String()); err != nil {
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
		return nil, team.ErrInvalidName()
	}

	count, err := s.teamRepo.CountByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if count >= settings.Limits.MaxTeams {
		return nil, team.ErrTeamLimit().WithDetail("limit", settings.Limits.MaxTeams)
	}

	now := time.Now().UTC()
	t := team.Team{
		ID:          kernel.NewTeamID(uuid.NewString()),
		OrgID:       orgID,
		Name:        name,
		Description: description,
		IsDefault:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.teamRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	return &t, nil
}

// Get returns a team scoped to its organisation and domain.
func (s *TeamService) Get(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, teamID kernel.TeamID) (*team.Team, error) {
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return nil, err
	}
	return s.teamRepo.FindByID(ctx, teamID, orgID)
}

// List pages through the organisation's teams.
func (s *TeamService) List(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, cursor string, limit int) (kernel.Page[team.Team], error) {
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return kernel.Page[team.Team]{}, err
	}

	limit = kernel.ClampPageSize(limit)
	items, err := s.teamRepo.List(ctx, orgID, kernel.DecodeCursor(cursor), limit)
	if err != nil {
		return kernel.Page[team.Team]{}, err
	}
	return kernel.NewPage(items, limit, func(t team.Team) string { return t.ID.String() }), nil
}

// Update renames a team. The default team and group assignment are immutable
// through this path.
func (s *TeamService) Update(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, teamID kernel.TeamID, name, description string) (*team.Team, error) {
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return nil, err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return nil, err
	}

	t, err := s.teamRepo.FindByID(ctx, teamID, orgID)
	if err != nil {
		return nil, err
	}
	if t.IsDefault {
		return nil, team.ErrDefaultProtected()
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return nil, team.ErrInvalidName()
	}

	if err := s.teamRepo.Update(ctx, teamID, orgID, name, description); err != nil {
		return nil, err
	}

	t.Name = name
	t.Description = description
	t.UpdatedAt = time.Now().UTC()
	return t, nil
}

// Delete removes a team. Members whose only team it was are re-enrolled into
// the default team in the same transaction, so the membership invariant
// holds throughout. The default team itself cannot be deleted.
func (s *TeamService) Delete(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, teamID kernel.TeamID) error {
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return err
	}

	t, err := s.teamRepo.FindByID(ctx, teamID, orgID)
	if err != nil {
		return err
	}
	if t.IsDefault {
		return team.ErrDefaultProtected()
	}

	def, err := s.teamRepo.FindDefault(ctx, orgID)
	if err != nil {
		return err
	}

	return s.teamRepo.DeleteWithReassign(ctx, teamID, orgID, def.ID)
}

// AddMember enrolls an organisation member in a team. Caller must hold owner
// or admin on the organisation; the lead role grants nothing here.
func (s *TeamService) AddMember(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, teamID kernel.TeamID, targetUserID kernel.UserID, role string) (*team.Member, error) {
	settings, err := s.cfg.Resolve(ctx, domain)
	if err != nil {
		return nil, domaincfg.ErrResolveFailed(err)
	}

	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return nil, err
	}
	if _, err := s.teamRepo.FindByID(ctx, teamID, orgID); err != nil {
		return nil, err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return nil, err
	}

	if role == "" {
		role = iam.TeamRoleMember
	}
	if !team.ValidRole(role) {
		return nil, team.ErrInvalidRole().WithDetail("role", role)
	}

	// Team membership is only open to organisation members.
	if _, err := s.orgRepo.FindMember(ctx, orgID, targetUserID); err != nil {
		if errx.IsCode(err, org.CodeMemberNotFound) {
			return nil, team.ErrNotOrgMember().WithDetail("user_id", targetUserID.String())
		}
		return nil, err
	}

	count, err := s.teamRepo.CountMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if count >= settings.Limits.MaxTeamMembers {
		return nil, team.ErrMemberLimit().WithDetail("limit", settings.Limits.MaxTeamMembers)
	}

	userTeams, err := s.teamRepo.CountUserTeams(ctx, orgID, targetUserID)
	if err != nil {
		return nil, err
	}
	if userTeams >= settings.Limits.MaxTeamsPerUser {
		return nil, team.ErrUserTeamLimit().WithDetail("limit", settings.Limits.MaxTeamsPerUser)
	}

	m := team.Member{
		TeamID:    teamID,
		UserID:    targetUserID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.teamRepo.AddMember(ctx, m); err != nil {
		return nil, err
	}

	return &m, nil
}

// ListMembers pages through a team's members.
func (s *TeamService) ListMembers(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, teamID kernel.TeamID, cursor string, limit int) (kernel.Page[team.Member], error) {
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return kernel.Page[team.Member]{}, err
	}
	if _, err := s.teamRepo.FindByID(ctx, teamID, orgID); err != nil {
		return kernel.Page[team.Member]{}, err
	}

	limit = kernel.ClampPageSize(limit)
	items, err := s.teamRepo.ListMembers(ctx, teamID, kernel.DecodeCursor(cursor), limit)
	if err != nil {
		return kernel.Page[team.Member]{}, err
	}
	return kernel.NewPage(items, limit, func(m team.Member) string { return m.UserID.String() }), nil
}

// ChangeMemberRole switches a member between lead and member.
func (s *TeamService) ChangeMemberRole(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, teamID kernel.TeamID, targetUserID kernel.UserID, role string) error {
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return err
	}
	if _, err := s.teamRepo.FindByID(ctx, teamID, orgID); err != nil {
		return err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return err
	}

	if !team.ValidRole(role) {
		return team.ErrInvalidRole().WithDetail("role", role)
	}

	if _, err := s.teamRepo.FindMember(ctx, teamID, targetUserID); err != nil {
		return err
	}

	return s.teamRepo.UpdateMemberRole(ctx, teamID, targetUserID, role)
}

// RemoveMember takes a user out of a team. A member cannot be removed from
// their last team; removal from the organisation is the path for that. The
// floor check lives inside the delete transaction, so concurrent removals of
// a user's last two teams cannot both pass it.
func (s *TeamService) RemoveMember(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID, teamID kernel.TeamID, targetUserID kernel.UserID) error {
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return err
	}
	if _, err := s.teamRepo.FindByID(ctx, teamID, orgID); err != nil {
		return err
	}
	if err := s.requireOrgManager(ctx, orgID, callerUserID); err != nil {
		return err
	}

	return s.teamRepo.RemoveMember(ctx, orgID, teamID, targetUserID)
}

// requireOrgManager allows organisation owners and admins.
func (s *TeamService) requireOrgManager(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) error {
	caller, err := s.orgRepo.FindMember(ctx, orgID, userID)
	if err != nil {
		if errx.IsCode(err, org.CodeMemberNotFound) {
			return team.ErrForbidden()
		}
		return err
	}
	if !caller.CanManageMembers() {
		return team.ErrForbidden()
	}
	return nil
}

func (s *TeamService) checkRate(ctx context.Context, key string) error {
	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		return errx.Wrap(err, "rate limiter failed", errx.TypeExternal)
	}
	if !allowed {
		return ratelimit.ErrLimited()
	}
	return nil
}
