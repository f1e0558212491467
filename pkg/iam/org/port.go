package org

import (
	"context"

	"github.com/idforge/idforge/pkg/kernel"
)

// Repository defines the contract for organisation persistence.
//
// Every multi-step mutation here is a single database transaction: the caller
// gets all-or-nothing semantics and there is never a window in which an
// organisation exists without its owner membership or default team.
type Repository interface {
	// CreateWithOwner atomically creates the organisation, the owner's
	// membership, the default team and the owner's enrollment in it.
	// Returns ErrSlugTaken on a (domain, slug) conflict and ErrAlreadyMember
	// if the owner already belongs to an organisation on the domain.
	CreateWithOwner(ctx context.Context, o Organisation, owner Member, defaultTeamID kernel.TeamID) error

	// FindByID returns the organisation scoped to its domain; an ID that
	// exists under another domain is a not-found.
	FindByID(ctx context.Context, id kernel.OrgID, domain kernel.Domain) (*Organisation, error)

	// List returns up to limit+1 organisations on the domain ordered by ID,
	// starting after afterID.
	List(ctx context.Context, domain kernel.Domain, afterID string, limit int) ([]Organisation, error)

	// UpdateName renames the organisation and re-assigns its slug.
	UpdateName(ctx context.Context, id kernel.OrgID, domain kernel.Domain, name, slug string) error

	// DeleteCascade removes the organisation and, in the same transaction,
	// every membership, team and group it owns.
	DeleteCascade(ctx context.Context, id kernel.OrgID, domain kernel.Domain) error

	// FindMember returns a membership row within an organisation.
	FindMember(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) (*Member, error)

	// FindMemberByDomain returns the user's single membership on a domain,
	// regardless of organisation.
	FindMemberByDomain(ctx context.Context, domain kernel.Domain, userID kernel.UserID) (*Member, error)

	// ListMembers pages through an organisation's members ordered by user ID.
	ListMembers(ctx context.Context, orgID kernel.OrgID, afterID string, limit int) ([]Member, error)

	// CountMembers returns the organisation's member count.
	CountMembers(ctx context.Context, orgID kernel.OrgID) (int, error)

	// CountOwners returns the number of members holding the owner role.
	CountOwners(ctx context.Context, orgID kernel.OrgID) (int, error)

	// AddMember atomically inserts the membership and enrolls the user in
	// the organisation's default team. Returns ErrAlreadyMember if the user
	// holds a membership anywhere on the domain.
	AddMember(ctx context.Context, m Member) error

	// UpdateMemberRole changes a member's role.
	UpdateMemberRole(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID, role string) error

	// RemoveMemberCascade deletes, in one transaction, the member's team
	// memberships within the organisation, their group memberships within
	// the organisation, and the membership row itself. The same transaction
	// verifies the organisation keeps at least one owner; removing the sole
	// remaining owner returns ErrLastOwner.
	RemoveMemberCascade(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) error

	// TransferOwnership atomically repoints the organisation's owner,
	// promotes the new owner's membership to owner and demotes the previous
	// owner to admin.
	TransferOwnership(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, from, to kernel.UserID) error
}
