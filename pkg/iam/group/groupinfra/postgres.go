package groupinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam/group"
	"github.com/idforge/idforge/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresGroupRepository is the PostgreSQL implementation of group.Repository.
type PostgresGroupRepository struct {
	db *sqlx.DB
}

func NewPostgresGroupRepository(db *sqlx.DB) group.Repository {
	return &PostgresGroupRepository{db: db}
}

func (r *PostgresGroupRepository) Create(ctx context.Context, g group.Group) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO groups (id, org_id, name, description, created_at, updated_at)
		VALUES (:id, :org_id, :name, :description, :created_at, :updated_at)`, g)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return group.ErrNameTaken().WithDetail("name", g.Name)
		}
		return errx.Wrap(err, "failed to create group", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresGroupRepository) FindByID(ctx context.Context, id kernel.GroupID, orgID kernel.OrgID) (*group.Group, error) {
	query := `
		SELECT id, org_id, name, description, created_at, updated_at
		FROM groups
		WHERE id = $1 AND org_id = $2`

	var g group.Group
	err := r.db.GetContext(ctx, &g, query, id.String(), orgID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, group.ErrNotFound().WithDetail("group_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find group", errx.TypeInternal).
			WithDetail("group_id", id.String())
	}

	return &g, nil
}

func (r *PostgresGroupRepository) List(ctx context.Context, orgID kernel.OrgID, afterID string, limit int) ([]group.Group, error) {
	query := `
		SELECT id, org_id, name, description, created_at, updated_at
		FROM groups
		WHERE org_id = $1 AND id > $2
		ORDER BY id
		LIMIT $3`

	var groups []group.Group
	err := r.db.SelectContext(ctx, &groups, query, orgID.String(), afterID, limit+1)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list groups", errx.TypeInternal).
			WithDetail("org_id", orgID.String())
	}

	return groups, nil
}

func (r *PostgresGroupRepository) Update(ctx context.Context, id kernel.GroupID, orgID kernel.OrgID, name, description string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE groups
		SET name = $1, description = $2, updated_at = $3
		WHERE id = $4 AND org_id = $5`,
		name, description, time.Now().UTC(), id.String(), orgID.String())
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return group.ErrNameTaken().WithDetail("name", name)
		}
		return errx.Wrap(err, "failed to update group", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return group.ErrNotFound().WithDetail("group_id", id.String())
	}

	return nil
}

// DeleteClearingTeams detaches the group's teams and deletes the group and
// its memberships in one transaction.
func (r *PostgresGroupRepository) DeleteClearingTeams(ctx context.Context, id kernel.GroupID, orgID kernel.OrgID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin transaction", errx.TypeInternal)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE teams SET group_id = NULL, updated_at = NOW() WHERE group_id = $1 AND org_id = $2`,
		id.String(), orgID.String()); err != nil {
		return errx.Wrap(err, "failed to detach teams from group", errx.TypeInternal)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1`, id.String()); err != nil {
		return errx.Wrap(err, "failed to remove group members", errx.TypeInternal)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM groups WHERE id = $1 AND org_id = $2`, id.String(), orgID.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete group", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return group.ErrNotFound().WithDetail("group_id", id.String())
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit transaction", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresGroupRepository) CountByOrg(ctx context.Context, orgID kernel.OrgID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM groups WHERE org_id = $1`, orgID.String())
	if err != nil {
		return 0, errx.Wrap(err, "failed to count groups", errx.TypeInternal)
	}
	return count, nil
}

func (r *PostgresGroupRepository) AssignTeam(ctx context.Context, orgID kernel.OrgID, teamID kernel.TeamID, groupID *kernel.GroupID) error {
	var gid interface{}
	if groupID != nil {
		gid = groupID.String()
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE teams SET group_id = $1, updated_at = $2 WHERE id = $3 AND org_id = $4`,
		gid, time.Now().UTC(), teamID.String(), orgID.String())
	if err != nil {
		return errx.Wrap(err, "failed to assign team to group", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return group.ErrNotFound().WithDetail("team_id", teamID.String())
	}

	return nil
}

func (r *PostgresGroupRepository) FindMember(ctx context.Context, groupID kernel.GroupID, userID kernel.UserID) (*group.Member, error) {
	query := `
		SELECT group_id, user_id, is_admin, created_at
		FROM group_members
		WHERE group_id = $1 AND user_id = $2`

	var m group.Member
	err := r.db.GetContext(ctx, &m, query, groupID.String(), userID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, group.ErrMemberNotFound().
				WithDetail("group_id", groupID.String()).
				WithDetail("user_id", userID.String())
		}
		return nil, errx.Wrap(err, "failed to find group member", errx.TypeInternal)
	}

	return &m, nil
}

func (r *PostgresGroupRepository) ListMembers(ctx context.Context, groupID kernel.GroupID, afterID string, limit int) ([]group.Member, error) {
	query := `
		SELECT group_id, user_id, is_admin, created_at
		FROM group_members
		WHERE group_id = $1 AND user_id > $2
		ORDER BY user_id
		LIMIT $3`

	var members []group.Member
	err := r.db.SelectContext(ctx, &members, query, groupID.String(), afterID, limit+1)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list group members", errx.TypeInternal).
			WithDetail("group_id", groupID.String())
	}

	return members, nil
}

func (r *PostgresGroupRepository) ListUserGroups(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) ([]group.Member, error) {
	query := `
		SELECT gm.group_id, gm.user_id, gm.is_admin, gm.created_at
		FROM group_members gm
		JOIN groups g ON g.id = gm.group_id
		WHERE g.org_id = $1 AND gm.user_id = $2
		ORDER BY gm.group_id`

	var members []group.Member
	err := r.db.SelectContext(ctx, &members, query, orgID.String(), userID.String())
	if err != nil {
		return nil, errx.Wrap(err, "failed to list user groups", errx.TypeInternal).
			WithDetail("user_id", userID.String())
	}

	return members, nil
}

func (r *PostgresGroupRepository) CountMembers(ctx context.Context, groupID kernel.GroupID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM group_members WHERE group_id = $1`, groupID.String())
	if err != nil {
		return 0, errx.Wrap(err, "failed to count group members", errx.TypeInternal)
	}
	return count, nil
}

func (r *PostgresGroupRepository) AddMember(ctx context.Context, m group.Member) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, is_admin, created_at)
		VALUES (:group_id, :user_id, :is_admin, :created_at)`, m)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return group.ErrAlreadyMember().WithDetail("user_id", m.UserID.String())
		}
		return errx.Wrap(err, "failed to add group member", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresGroupRepository) SetMemberAdmin(ctx context.Context, groupID kernel.GroupID, userID kernel.UserID, isAdmin bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE group_members SET is_admin = $1 WHERE group_id = $2 AND user_id = $3`,
		isAdmin, groupID.String(), userID.String())
	if err != nil {
		return errx.Wrap(err, "failed to set group admin flag", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return group.ErrMemberNotFound().WithDetail("user_id", userID.String())
	}

	return nil
}

func (r *PostgresGroupRepository) RemoveMember(ctx context.Context, groupID kernel.GroupID, userID kernel.UserID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID.String(), userID.String())
	if err != nil {
		return errx.Wrap(err, "failed to remove group member", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return group.ErrMemberNotFound().WithDetail("user_id", userID.String())
	}

	return nil
}
