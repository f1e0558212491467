package domainroleinfra

import (
	"context"
	"database/sql"
	"strings"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam/domainrole"
	"github.com/idforge/idforge/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Index backing the one-admin-per-domain invariant (see migrations).
const singleAdminConstraint = "domain_roles_single_admin_idx"

// PostgresDomainRoleRepository is the PostgreSQL implementation of
// domainrole.Repository.
type PostgresDomainRoleRepository struct {
	db *sqlx.DB
}

func NewPostgresDomainRoleRepository(db *sqlx.DB) domainrole.Repository {
	return &PostgresDomainRoleRepository{db: db}
}

func (r *PostgresDomainRoleRepository) Find(ctx context.Context, domain kernel.Domain, userID kernel.UserID) (*domainrole.DomainRole, error) {
	query := `
		SELECT domain, user_id, role, created_at
		FROM domain_roles
		WHERE domain = $1 AND user_id = $2`

	var role domainrole.DomainRole
	err := r.db.GetContext(ctx, &role, query, domain.String(), userID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainrole.ErrNotFound().
				WithDetail("domain", domain.String()).
				WithDetail("user_id", userID.String())
		}
		return nil, errx.Wrap(err, "failed to find domain role", errx.TypeInternal).
			WithDetail("domain", domain.String())
	}

	return &role, nil
}

func (r *PostgresDomainRoleRepository) Create(ctx context.Context, role domainrole.DomainRole) error {
	query := `
		INSERT INTO domain_roles (domain, user_id, role, created_at)
		VALUES (:domain, :user_id, :role, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, role)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			if strings.Contains(pqErr.Constraint, singleAdminConstraint) {
				return domainrole.ErrAdminTaken().WithDetail("domain", role.Domain.String())
			}
			return domainrole.ErrPairExists().
				WithDetail("domain", role.Domain.String()).
				WithDetail("user_id", role.UserID.String())
		}
		return errx.Wrap(err, "failed to create domain role", errx.TypeInternal).
			WithDetail("domain", role.Domain.String())
	}

	return nil
}

func (r *PostgresDomainRoleRepository) CountAdmins(ctx context.Context, domain kernel.Domain) (int, error) {
	query := `SELECT COUNT(*) FROM domain_roles WHERE domain = $1 AND role = 'admin'`

	var count int
	err := r.db.GetContext(ctx, &count, query, domain.String())
	if err != nil {
		return 0, errx.Wrap(err, "failed to count domain admins", errx.TypeInternal).
			WithDetail("domain", domain.String())
	}

	return count, nil
}
