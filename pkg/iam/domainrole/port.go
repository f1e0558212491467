package domainrole

import (
	"context"

	"github.com/idforge/idforge/pkg/kernel"
)

// Repository defines the contract for domain role persistence.
//
// Create must surface the two uniqueness conflicts distinctly: ErrAdminTaken
// when the one-admin-per-domain index fires, ErrPairExists when the
// (domain, user) primary key fires. The service's election algorithm branches
// on exactly these two signals.
type Repository interface {
	// Find returns the role row for a (domain, user) pair
	Find(ctx context.Context, domain kernel.Domain, userID kernel.UserID) (*DomainRole, error)

	// Create inserts a role row
	Create(ctx context.Context, role DomainRole) error

	// CountAdmins returns the number of admin rows on a domain
	CountAdmins(ctx context.Context, domain kernel.Domain) (int, error)
}
