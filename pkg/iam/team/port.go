package team

import (
	"context"

	"github.com/idforge/idforge/pkg/kernel"
)

// Repository defines the contract for team persistence. All teams are scoped
// to their organisation; lookups with a mismatched org are not-found.
type Repository interface {
	// Create inserts the team. Returns ErrNameTaken on an (org_id, name)
	// conflict.
	Create(ctx context.Context, t Team) error

	// FindByID returns the team scoped to its organisation.
	FindByID(ctx context.Context, id kernel.TeamID, orgID kernel.OrgID) (*Team, error)

	// FindDefault returns the organisation's default team.
	FindDefault(ctx context.Context, orgID kernel.OrgID) (*Team, error)

	// List returns up to limit+1 teams in the organisation ordered by ID,
	// starting after afterID.
	List(ctx context.Context, orgID kernel.OrgID, afterID string, limit int) ([]Team, error)

	// Update renames the team. Returns ErrNameTaken on conflict.
	Update(ctx context.Context, id kernel.TeamID, orgID kernel.OrgID, name, description string) error

	// DeleteWithReassign deletes the team and, in the same transaction,
	// re-enrolls members whose only team it was into the default team.
	DeleteWithReassign(ctx context.Context, id kernel.TeamID, orgID kernel.OrgID, defaultTeamID kernel.TeamID) error

	// CountByOrg returns the number of teams in the organisation.
	CountByOrg(ctx context.Context, orgID kernel.OrgID) (int, error)

	// FindMember returns a member's enrollment in a team.
	FindMember(ctx context.Context, teamID kernel.TeamID, userID kernel.UserID) (*Member, error)

	// ListMembers pages through a team's members ordered by user ID.
	ListMembers(ctx context.Context, teamID kernel.TeamID, afterID string, limit int) ([]Member, error)

	// ListUserTeams returns every team in the organisation the user belongs
	// to, ordered by team ID.
	ListUserTeams(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) ([]Team, error)

	// ListUserMemberships returns the user's enrollments across the
	// organisation's teams, ordered by team ID.
	ListUserMemberships(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) ([]Member, error)

	// CountMembers returns the team's member count.
	CountMembers(ctx context.Context, teamID kernel.TeamID) (int, error)

	// CountUserTeams returns how many teams in the organisation the user
	// belongs to.
	CountUserTeams(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) (int, error)

	// AddMember enrolls the user. Returns ErrAlreadyMember on a duplicate.
	AddMember(ctx context.Context, m Member) error

	// UpdateMemberRole changes a member's team role.
	UpdateMemberRole(ctx context.Context, teamID kernel.TeamID, userID kernel.UserID, role string) error

	// RemoveMember deletes the enrollment. The same transaction verifies the
	// user keeps at least one team in the organisation; removing their last
	// enrollment returns ErrLastTeam.
	RemoveMember(ctx context.Context, orgID kernel.OrgID, teamID kernel.TeamID, userID kernel.UserID) error
}
