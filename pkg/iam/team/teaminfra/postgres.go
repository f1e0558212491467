package teaminfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam/team"
	"github.com/idforge/idforge/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresTeamRepository is the PostgreSQL implementation of team.Repository.
type PostgresTeamRepository struct {
	db *sqlx.DB
}

func NewPostgresTeamRepository(db *sqlx.DB) team.Repository {
	return &PostgresTeamRepository{db: db}
}

func (r *PostgresTeamRepository) Create(ctx context.Context, t team.Team) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO teams (id, org_id, group_id, name, description, is_default, created_at, updated_at)
		VALUES (:id, :org_id, :group_id, :name, :description, :is_default, :created_at, :updated_at)`, t)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return team.ErrNameTaken().WithDetail("name", t.Name)
		}
		return errx.Wrap(err, "failed to create team", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresTeamRepository) FindByID(ctx context.Context, id kernel.TeamID, orgID kernel.OrgID) (*team.Team, error) {
	query := `
		SELECT id, org_id, group_id, name, description, is_default, created_at, updated_at
		FROM teams
		WHERE id = $1 AND org_id = $2`

	var t team.Team
	err := r.db.GetContext(ctx, &t, query, id.String(), orgID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, team.ErrNotFound().WithDetail("team_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find team", errx.TypeInternal).
			WithDetail("team_id", id.String())
	}

	return &t, nil
}

func (r *PostgresTeamRepository) FindDefault(ctx context.Context, orgID kernel.OrgID) (*team.Team, error) {
	query := `
		SELECT id, org_id, group_id, name, description, is_default, created_at, updated_at
		FROM teams
		WHERE org_id = $1 AND is_default = TRUE`

	var t team.Team
	err := r.db.GetContext(ctx, &t, query, orgID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, team.ErrNotFound().WithDetail("org_id", orgID.String())
		}
		return nil, errx.Wrap(err, "failed to find default team", errx.TypeInternal).
			WithDetail("org_id", orgID.String())
	}

	return &t, nil
}

func (r *PostgresTeamRepository) List(ctx context.Context, orgID kernel.OrgID, afterID string, limit int) ([]team.Team, error) {
	query := `
		SELECT id, org_id, group_id, name, description, is_default, created_at, updated_at
		FROM teams
		WHERE org_id = $1 AND id > $2
		ORDER BY id
		LIMIT $3`

	var teams []team.Team
	err := r.db.SelectContext(ctx, &teams, query, orgID.String(), afterID, limit+1)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list teams", errx.TypeInternal).
			WithDetail("org_id", orgID.String())
	}

	return teams, nil
}

func (r *PostgresTeamRepository) Update(ctx context.Context, id kernel.TeamID, orgID kernel.OrgID, name, description string) error {
	query := `
		UPDATE teams
		SET name = $1, description = $2, updated_at = $3
		WHERE id = $4 AND org_id = $5`

	result, err := r.db.ExecContext(ctx, query, name, description, time.Now().UTC(), id.String(), orgID.String())
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return team.ErrNameTaken().WithDetail("name", name)
		}
		return errx.Wrap(err, "failed to update team", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return team.ErrNotFound().WithDetail("team_id", id.String())
	}

	return nil
}

// DeleteWithReassign deletes the team in one transaction. Members for whom it
// was the only team in the organisation are enrolled into the default team
// first, so nobody is left teamless mid-delete.
func (r *PostgresTeamRepository) DeleteWithReassign(ctx context.Context, id kernel.TeamID, orgID kernel.OrgID, defaultTeamID kernel.TeamID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin transaction", errx.TypeInternal)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO team_members (team_id, user_id, role, created_at)
		SELECT $1, tm.user_id, 'member', NOW()
		FROM team_members tm
		WHERE tm.team_id = $2
		  AND NOT EXISTS (
			SELECT 1 FROM team_members other
			JOIN teams t ON t.id = other.team_id
			WHERE other.user_id = tm.user_id
			  AND t.org_id = $3
			  AND other.team_id <> $2
		  )
		ON CONFLICT DO NOTHING`,
		defaultTeamID.String(), id.String(), orgID.String())
	if err != nil {
		return errx.Wrap(err, "failed to reassign sole-team members", errx.TypeInternal).
			WithDetail("team_id", id.String())
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1`, id.String()); err != nil {
		return errx.Wrap(err, "failed to remove team members", errx.TypeInternal)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM teams WHERE id = $1 AND org_id = $2 AND is_default = FALSE`,
		id.String(), orgID.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete team", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return team.ErrNotFound().WithDetail("team_id", id.String())
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit transaction", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresTeamRepository) CountByOrg(ctx context.Context, orgID kernel.OrgID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM teams WHERE org_id = $1`, orgID.String())
	if err != nil {
		return 0, errx.Wrap(err, "failed to count teams", errx.TypeInternal)
	}
	return count, nil
}

func (r *PostgresTeamRepository) FindMember(ctx context.Context, teamID kernel.TeamID, userID kernel.UserID) (*team.Member, error) {
	query := `
		SELECT team_id, user_id, role, created_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2`

	var m team.Member
	err := r.db.GetContext(ctx, &m, query, teamID.String(), userID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, team.ErrMemberNotFound().
				WithDetail("team_id", teamID.String()).
				WithDetail("user_id", userID.String())
		}
		return nil, errx.Wrap(err, "failed to find team member", errx.TypeInternal)
	}

	return &m, nil
}

func (r *PostgresTeamRepository) ListMembers(ctx context.Context, teamID kernel.TeamID, afterID string, limit int) ([]team.Member, error) {
	query := `
		SELECT team_id, user_id, role, created_at
		FROM team_members
		WHERE team_id = $1 AND user_id > $2
		ORDER BY user_id
		LIMIT $3`

	var members []team.Member
	err := r.db.SelectContext(ctx, &members, query, teamID.String(), afterID, limit+1)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list team members", errx.TypeInternal).
			WithDetail("team_id", teamID.String())
	}

	return members, nil
}

func (r *PostgresTeamRepository) ListUserTeams(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) ([]team.Team, error) {
	query := `
		SELECT t.id, t.org_id, t.group_id, t.name, t.description, t.is_default, t.created_at, t.updated_at
		FROM teams t
		JOIN team_members tm ON tm.team_id = t.id
		WHERE t.org_id = $1 AND tm.user_id = $2
		ORDER BY t.id`

	var teams []team.Team
	err := r.db.SelectContext(ctx, &teams, query, orgID.String(), userID.String())
	if err != nil {
		return nil, errx.Wrap(err, "failed to list user teams", errx.TypeInternal).
			WithDetail("user_id", userID.String())
	}

	return teams, nil
}

func (r *PostgresTeamRepository) ListUserMemberships(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) ([]team.Member, error) {
	query := `
		SELECT tm.team_id, tm.user_id, tm.role, tm.created_at
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE t.org_id = $1 AND tm.user_id = $2
		ORDER BY tm.team_id`

	var members []team.Member
	err := r.db.SelectContext(ctx, &members, query, orgID.String(), userID.String())
	if err != nil {
		return nil, errx.Wrap(err, "failed to list user memberships", errx.TypeInternal).
			WithDetail("user_id", userID.String())
	}

	return members, nil
}

func (r *PostgresTeamRepository) CountMembers(ctx context.Context, teamID kernel.TeamID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM team_members WHERE team_id = $1`, teamID.String())
	if err != nil {
		return 0, errx.Wrap(err, "failed to count team members", errx.TypeInternal)
	}
	return count, nil
}

func (r *PostgresTeamRepository) CountUserTeams(ctx context.Context, orgID kernel.OrgID, userID kernel.UserID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE t.org_id = $1 AND tm.user_id = $2`,
		orgID.String(), userID.String())
	if err != nil {
		return 0, errx.Wrap(err, "failed to count user teams", errx.TypeInternal)
	}
	return count, nil
}

func (r *PostgresTeamRepository) AddMember(ctx context.Context, m team.Member) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO team_members (team_id, user_id, role, created_at)
		VALUES (:team_id, :user_id, :role, :created_at)`, m)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return team.ErrAlreadyMember().WithDetail("user_id", m.UserID.String())
		}
		return errx.Wrap(err, "failed to add team member", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresTeamRepository) UpdateMemberRole(ctx context.Context, teamID kernel.TeamID, userID kernel.UserID, role string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE team_members SET role = $1 WHERE team_id = $2 AND user_id = $3`,
		role, teamID.String(), userID.String())
	if err != nil {
		return errx.Wrap(err, "failed to update team member role", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return team.ErrMemberNotFound().WithDetail("user_id", userID.String())
	}

	return nil
}

// RemoveMember deletes the enrollment with the membership-floor check inside
// the same transaction. All of the user's enrollments in the organisation are
// locked first, so two concurrent removals of their last two teams serialize
// and the second sees the count the first left behind.
func (r *PostgresTeamRepository) RemoveMember(ctx context.Context, orgID kernel.OrgID, teamID kernel.TeamID, userID kernel.UserID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin transaction", errx.TypeInternal)
	}
	defer func() { _ = tx.Rollback() }()

	var teamIDs []string
	err = tx.SelectContext(ctx, &teamIDs, `
		SELECT tm.team_id
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE tm.user_id = $1 AND t.org_id = $2
		FOR UPDATE OF tm`,
		userID.String(), orgID.String())
	if err != nil {
		return errx.Wrap(err, "failed to lock user enrollments", errx.TypeInternal)
	}

	enrolled := false
	for _, id := range teamIDs {
		if id == teamID.String() {
			enrolled = true
			break
		}
	}
	if !enrolled {
		return team.ErrMemberNotFound().WithDetail("user_id", userID.String())
	}
	if len(teamIDs) <= 1 {
		return team.ErrLastTeam()
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`,
		teamID.String(), userID.String()); err != nil {
		return errx.Wrap(err, "failed to remove team member", errx.TypeInternal)
	}

	if err := tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit transaction", errx.TypeInternal)
	}
	return nil
}
