package group

import (
	"context"

	"github.com/idforge/idforge/pkg/kernel"
)

// Repository defines the contract for group persistence. Groups are scoped to
// their organisation; lookups with a mismatched org are not-found.
type Repository interface {
	// Create inserts the group. Returns ErrNameTaken on an (org_id, name)
	// conflict.
	Create(ctx context.Context, g Group) error

	// FindByID returns the group scoped to its organisation.
	FindByID(ctx context.Context, id kernel.GroupID, orgID kernel.OrgID) (*Group, error)

	// List returns up to limit+1 groups in the organisation ordered by ID,
	// starting after afterID.
	List(ctx context.Context, orgID kernel.OrgID, afterID string, limit int) ([]Group, error)

	// Update renames the group. Returns ErrNameTaken on conflict.
	Update(ctx context.Context, id kernel.GroupID, orgID kernel.OrgID, name, description string) error

	// DeleteClearingTeams deletes the group and, in the same transaction,
	// detaches every team assigned to it. Teams survive group deletion.
	DeleteClearingTeams(ctx context.Context, id kernel.GroupID, orgID kernel.OrgID) error

	// CountByOrg returns the number of groups in the organisation.
	CountByOrg(ctx context.Context, orgID kernel.OrgID) (int, error)

	// AssignTeam points a team's group_id at the group, or clears it when
	// groupID is nil. The team must belong to the same organisation.
	AssignTeam(ctx context.Context, orgID kernel.OrgID, teamID kernel.TeamID, groupID *kernel.GroupID) error

	// FindMember returns a member's enrollment in a group.
	FindMember(ctx context.Context, groupID kernel.GroupID, userID kernel.UserID) (*Member, error)

	// ListMembers pages through a group's members ordered by user ID.
	ListMembers(ctx context.Context, groupID kernel.GroupID, afterID string, limit int) ([]Member, error)

	// ListUserGroups returns the user's memberships across the
	// organisation's groups.
	ListUserGroups(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) ([]Member, error)

	// CountMembers returns the group's member count.
	CountMembers(ctx context.Context, groupID kernel.GroupID) (int, error)

	// AddMember enrolls the user. Returns ErrAlreadyMember on a duplicate.
	AddMember(ctx context.Context, m Member) error

	// SetMemberAdmin flips a member's admin flag.
	SetMemberAdmin(ctx context.Context, groupID kernel.GroupID, userID kernel.UserID, isAdmin bool) error

	// RemoveMember deletes the enrollment.
	RemoveMember(ctx context.Context, groupID kernel.GroupID, userID kernel.UserID) error
}
