package authcodeinfra

import (
	"context"
	"database/sql"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam/authcode"
	"github.com/idforge/idforge/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresAuthCodeRepository is the PostgreSQL implementation of
// authcode.Repository.
type PostgresAuthCodeRepository struct {
	db *sqlx.DB
}

func NewPostgresAuthCodeRepository(db *sqlx.DB) authcode.Repository {
	return &PostgresAuthCodeRepository{db: db}
}

func (r *PostgresAuthCodeRepository) Create(ctx context.Context, code authcode.AuthorizationCode) error {
	query := `
		INSERT INTO auth_codes (
			id, code_hash, user_id, domain, config_url, redirect_url,
			expires_at, used_at, created_at
		) VALUES (
			:id, :code_hash, :user_id, :domain, :config_url, :redirect_url,
			:expires_at, :used_at, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, code)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return authcode.ErrCollision()
		}
		return errx.Wrap(err, "failed to create authorization code", errx.TypeInternal).
			WithDetail("code_id", code.ID)
	}

	return nil
}

// Redeem is the single conditional update that makes redemption exactly-once:
// concurrent attempts race on the used_at predicate and at most one wins.
func (r *PostgresAuthCodeRepository) Redeem(ctx context.Context, codeHash string, domain kernel.Domain, configURL string) (*authcode.AuthorizationCode, error) {
	query := `
		UPDATE auth_codes
		SET used_at = NOW()
		WHERE code_hash = $1
		  AND domain = $2
		  AND config_url = $3
		  AND used_at IS NULL
		  AND expires_at > NOW()
		RETURNING id, code_hash, user_id, domain, config_url, redirect_url,
		          expires_at, used_at, created_at`

	var code authcode.AuthorizationCode
	err := r.db.GetContext(ctx, &code, query, codeHash, domain.String(), configURL)
	if err != nil {
		if err == sql.ErrNoRows {
			// Unknown, expired, already used and wrong tenant all look the same.
			return nil, authcode.ErrInvalid()
		}
		return nil, errx.Wrap(err, "failed to redeem authorization code", errx.TypeInternal)
	}

	return &code, nil
}
