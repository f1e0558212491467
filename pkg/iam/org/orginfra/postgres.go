package orginfra

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/org"
	"github.com/idforge/idforge/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Constraint names the repository branches on (see migrations).
const (
	slugConstraint         = "organisations_domain_slug_key"
	memberDomainConstraint = "org_members_domain_user_id_key"
)

// PostgresOrgRepository is the PostgreSQL implementation of org.Repository.
type PostgresOrgRepository struct {
	db *sqlx.DB
}

func NewPostgresOrgRepository(db *sqlx.DB) org.Repository {
	return &PostgresOrgRepository{db: db}
}

// withTx runs fn inside a transaction, rolling back on any error.
func (r *PostgresOrgRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin transaction", errx.TypeInternal)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit transaction", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresOrgRepository) CreateWithOwner(ctx context.Context, o org.Organisation, owner org.Member, defaultTeamID kernel.TeamID) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO organisations (id, domain, name, slug, owner_id, created_at, updated_at)
			VALUES (:id, :domain, :name, :slug, :owner_id, :created_at, :updated_at)`, o)
		if err != nil {
			return translateCreateConflict(err, "failed to create organisation")
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO org_members (org_id, user_id, domain, role, created_at)
			VALUES (:org_id, :user_id, :domain, :role, :created_at)`, owner)
		if err != nil {
			return translateCreateConflict(err, "failed to create owner membership")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO teams (id, org_id, group_id, name, description, is_default, created_at, updated_at)
			VALUES ($1, $2, NULL, $3, '', TRUE, $4, $4)`,
			defaultTeamID.String(), o.ID.String(), org.DefaultTeamName, o.CreatedAt)
		if err != nil {
			return errx.Wrap(err, "failed to create default team", errx.TypeInternal)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO team_members (team_id, user_id, role, created_at)
			VALUES ($1, $2, $3, $4)`,
			defaultTeamID.String(), owner.UserID.String(), iam.TeamRoleLead, o.CreatedAt)
		if err != nil {
			return errx.Wrap(err, "failed to enroll owner in default team", errx.TypeInternal)
		}

		return nil
	})
}

func (r *PostgresOrgRepository) FindByID(ctx context.Context, id kernel.OrgID, domain kernel.Domain) (*org.Organisation, error) {
	query := `
		SELECT id, domain, name, slug, owner_id, created_at, updated_at
		FROM organisations
		WHERE id = $1 AND domain = $2`

	var o org.Organisation
	err := r.db.GetContext(ctx, &o, query, id.String(), domain.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, org.ErrNotFound().WithDetail("org_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find organisation", errx.TypeInternal).
			WithDetail("org_id", id.String())
	}

	return &o, nil
}

func (r *PostgresOrgRepository) List(ctx context.Context, domain kernel.Domain, afterID string, limit int) ([]org.Organisation, error) {
	query := `
		SELECT id, domain, name, slug, owner_id, created_at, updated_at
		FROM organisations
		WHERE domain = $1 AND id > $2
		ORDER BY id
		LIMIT $3`

	var orgs []org.Organisation
	err := r.db.SelectContext(ctx, &orgs, query, domain.String(), afterID, limit+1)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list organisations", errx.TypeInternal).
			WithDetail("domain", domain.String())
	}

	return orgs, nil
}

func (r *PostgresOrgRepository) UpdateName(ctx context.Context, id kernel.OrgID, domain kernel.Domain, name, slug string) error {
	query := `
		UPDATE organisations
		SET name = $1, slug = $2, updated_at = $3
		WHERE id = $4 AND domain = $5`

	result, err := r.db.ExecContext(ctx, query, name, slug, time.Now().UTC(), id.String(), domain.String())
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return org.ErrSlugTaken().WithDetail("slug", slug)
		}
		return errx.Wrap(err, "failed to update organisation", errx.TypeInternal).
			WithDetail("org_id", id.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return org.ErrNotFound().WithDetail("org_id", id.String())
	}

	return nil
}

// DeleteCascade removes the organisation and everything it owns with
// index-scoped deletes inside one transaction: memberships of its groups and
// teams first, then the groups and teams, then the org memberships, then the
// organisation itself.
func (r *PostgresOrgRepository) DeleteCascade(ctx context.Context, id kernel.OrgID, domain kernel.Domain) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		steps := []string{
			`DELETE FROM group_members WHERE group_id IN (SELECT id FROM groups WHERE org_id = $1)`,
			`DELETE FROM team_members WHERE team_id IN (SELECT id FROM teams WHERE org_id = $1)`,
			`DELETE FROM groups WHERE org_id = $1`,
			`DELETE FROM teams WHERE org_id = $1`,
			`DELETE FROM org_members WHERE org_id = $1`,
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, step, id.String()); err != nil {
				return errx.Wrap(err, "failed to cascade organisation delete", errx.TypeInternal).
					WithDetail("org_id", id.String())
			}
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM organisations WHERE id = $1 AND domain = $2`,
			id.String(), domain.String())
		if err != nil {
			return errx.Wrap(err, "failed to delete organisation", errx.TypeInternal).
				WithDetail("org_id", id.String())
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
		}
		if rowsAffected == 0 {
			return org.ErrNotFound().WithDetail("org_id", id.String())
		}

		return nil
	})
}

func (r *PostgresOrgRepository) FindMember(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) (*org.Member, error) {
	query := `
		SELECT org_id, user_id, domain, role, created_at
		FROM org_members
		WHERE org_id = $1 AND user_id = $2`

	var m org.Member
	err := r.db.GetContext(ctx, &m, query, orgID.String(), userID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, org.ErrMemberNotFound().
				WithDetail("org_id", orgID.String()).
				WithDetail("user_id", userID.String())
		}
		return nil, errx.Wrap(err, "failed to find organisation member", errx.TypeInternal)
	}

	return &m, nil
}

func (r *PostgresOrgRepository) FindMemberByDomain(ctx context.Context, domain kernel.Domain, userID kernel.UserID) (*org.Member, error) {
	query := `
		SELECT org_id, user_id, domain, role, created_at
		FROM org_members
		WHERE domain = $1 AND user_id = $2`

	var m org.Member
	err := r.db.GetContext(ctx, &m, query, domain.String(), userID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, org.ErrMemberNotFound().
				WithDetail("domain", domain.String()).
				WithDetail("user_id", userID.String())
		}
		return nil, errx.Wrap(err, "failed to find member by domain", errx.TypeInternal)
	}

	return &m, nil
}

func (r *PostgresOrgRepository) ListMembers(ctx context.Context, orgID kernel.OrgID, afterID string, limit int) ([]org.Member, error) {
	query := `
		SELECT org_id, user_id, domain, role, created_at
		FROM org_members
		WHERE org_id = $1 AND user_id > $2
		ORDER BY user_id
		LIMIT $3`

	var members []org.Member
	err := r.db.SelectContext(ctx, &members, query, orgID.String(), afterID, limit+1)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list organisation members", errx.TypeInternal).
			WithDetail("org_id", orgID.String())
	}

	return members, nil
}

func (r *PostgresOrgRepository) CountMembers(ctx context.Context, orgID kernel.OrgID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM org_members WHERE org_id = $1`, orgID.String())
	if err != nil {
		return 0, errx.Wrap(err, "failed to count organisation members", errx.TypeInternal)
	}
	return count, nil
}

func (r *PostgresOrgRepository) CountOwners(ctx context.Context, orgID kernel.OrgID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM org_members WHERE org_id = $1 AND role = 'owner'`, orgID.String())
	if err != nil {
		return 0, errx.Wrap(err, "failed to count organisation owners", errx.TypeInternal)
	}
	return count, nil
}

// AddMember inserts the membership and enrolls the user in the default team
// in one transaction, so no member ever exists without a team.
func (r *PostgresOrgRepository) AddMember(ctx context.Context, m org.Member) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO org_members (org_id, user_id, domain, role, created_at)
			VALUES (:org_id, :user_id, :domain, :role, :created_at)`, m)
		if err != nil {
			return translateCreateConflict(err, "failed to create membership")
		}

		var defaultTeamID string
		err = tx.GetContext(ctx, &defaultTeamID,
			`SELECT id FROM teams WHERE org_id = $1 AND is_default = TRUE`, m.OrgID.String())
		if err != nil {
			return errx.Wrap(err, "failed to find default team", errx.TypeInternal).
				WithDetail("org_id", m.OrgID.String())
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO team_members (team_id, user_id, role, created_at)
			VALUES ($1, $2, $3, $4)`,
			defaultTeamID, m.UserID.String(), iam.TeamRoleMember, m.CreatedAt)
		if err != nil {
			return errx.Wrap(err, "failed to enroll member in default team", errx.TypeInternal)
		}

		return nil
	})
}

func (r *PostgresOrgRepository) UpdateMemberRole(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID, role string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE org_members SET role = $1 WHERE org_id = $2 AND user_id = $3`,
		role, orgID.String(), userID.String())
	if err != nil {
		return errx.Wrap(err, "failed to update member role", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return org.ErrMemberNotFound().WithDetail("user_id", userID.String())
	}

	return nil
}

// RemoveMemberCascade deletes the membership together with the user's team
// and group rows in the organisation. The owner-floor check runs inside the
// same transaction: the member row and all owner rows are locked first, so
// two concurrent owner removals serialize and the second sees the count the
// first left behind.
func (r *PostgresOrgRepository) RemoveMemberCascade(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		var role string
		err := tx.GetContext(ctx, &role, `
			SELECT role FROM org_members
			WHERE org_id = $1 AND user_id = $2
			FOR UPDATE`,
			orgID.String(), userID.String())
		if err != nil {
			if err == sql.ErrNoRows {
				return org.ErrMemberNotFound().WithDetail("user_id", userID.String())
			}
			return errx.Wrap(err, "failed to lock organisation member", errx.TypeInternal)
		}

		if role == iam.OrgRoleOwner {
			var owners int
			err := tx.GetContext(ctx, &owners, `
				SELECT COUNT(*) FROM (
					SELECT user_id FROM org_members
					WHERE org_id = $1 AND role = 'owner'
					FOR UPDATE
				) locked`,
				orgID.String())
			if err != nil {
				return errx.Wrap(err, "failed to count organisation owners", errx.TypeInternal)
			}
			if owners <= 1 {
				return org.ErrLastOwner()
			}
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM team_members
			WHERE user_id = $1 AND team_id IN (SELECT id FROM teams WHERE org_id = $2)`,
			userID.String(), orgID.String())
		if err != nil {
			return errx.Wrap(err, "failed to remove team memberships", errx.TypeInternal)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM group_members
			WHERE user_id = $1 AND group_id IN (SELECT id FROM groups WHERE org_id = $2)`,
			userID.String(), orgID.String())
		if err != nil {
			return errx.Wrap(err, "failed to remove group memberships", errx.TypeInternal)
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM org_members WHERE org_id = $1 AND user_id = $2`,
			orgID.String(), userID.String())
		if err != nil {
			return errx.Wrap(err, "failed to remove organisation member", errx.TypeInternal)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
		}
		if rowsAffected == 0 {
			return org.ErrMemberNotFound().WithDetail("user_id", userID.String())
		}

		return nil
	})
}

func (r *PostgresOrgRepository) TransferOwnership(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, from, to kernel.UserID) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE organisations SET owner_id = $1, updated_at = $2
			WHERE id = $3 AND domain = $4 AND owner_id = $5`,
			to.String(), time.Now().UTC(), orgID.String(), domain.String(), from.String())
		if err != nil {
			return errx.Wrap(err, "failed to repoint organisation owner", errx.TypeInternal)
		}
		if n, err := result.RowsAffected(); err != nil {
			return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
		} else if n == 0 {
			return org.ErrNotFound().WithDetail("org_id", orgID.String())
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE org_members SET role = 'owner' WHERE org_id = $1 AND user_id = $2`,
			orgID.String(), to.String())
		if err != nil {
			return errx.Wrap(err, "failed to promote new owner", errx.TypeInternal)
		}
		if n, err := result.RowsAffected(); err != nil {
			return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
		} else if n == 0 {
			return org.ErrMemberNotFound().WithDetail("user_id", to.String())
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE org_members SET role = 'admin' WHERE org_id = $1 AND user_id = $2`,
			orgID.String(), from.String())
		if err != nil {
			return errx.Wrap(err, "failed to demote previous owner", errx.TypeInternal)
		}

		return nil
	})
}

// translateCreateConflict maps a unique violation to the org error the slug
// retry loop and the cross-org membership rule branch on.
func translateCreateConflict(err error, msg string) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
		switch {
		case strings.Contains(pqErr.Constraint, slugConstraint):
			return org.ErrSlugTaken()
		case strings.Contains(pqErr.Constraint, memberDomainConstraint):
			return org.ErrAlreadyMember()
		default:
			// Primary key collision on (org_id, user_id) is the same story.
			return org.ErrAlreadyMember()
		}
	}
	return errx.Wrap(err, msg, errx.TypeInternal)
}
