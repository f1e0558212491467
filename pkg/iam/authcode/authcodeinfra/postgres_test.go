package authcodeinfra_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam/authcode"
	"github.com/idforge/idforge/pkg/iam/authcode/authcodeinfra"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func newMockRepo(t *testing.T) (authcode.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return authcodeinfra.NewPostgresAuthCodeRepository(sqlx.NewDb(db, "postgres")), mock
}

func sampleCode() authcode.AuthorizationCode {
	now := time.Now()
	return authcode.AuthorizationCode{
		ID:          "code-id",
		CodeHash:    "abc123",
		UserID:      "user-1",
		Domain:      "acme.test",
		ConfigURL:   "https://cfg",
		RedirectURL: "https://app",
		ExpiresAt:   now.Add(time.Minute),
		CreatedAt:   now,
	}
}

func TestCreate_DuplicateHashMapsToCollision(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO auth_codes").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "auth_codes_code_hash_key"})

	err := repo.Create(context.Background(), sampleCode())
	if !errx.IsCode(err, authcode.CodeCollision) {
		t.Fatalf("expected collision, got %v", err)
	}
}

func TestCreate_OK(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO auth_codes").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), sampleCode()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
}

func TestRedeem_NoRowMapsToInvalid(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("UPDATE auth_codes").
		WithArgs("abc123", "acme.test", "https://cfg").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Redeem(context.Background(), "abc123", "acme.test", "https://cfg")
	if !errx.IsCode(err, authcode.CodeInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestRedeem_ReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "code_hash", "user_id", "domain", "config_url", "redirect_url",
		"expires_at", "used_at", "created_at",
	}).AddRow("code-id", "abc123", "user-1", "acme.test", "https://cfg", "https://app",
		now.Add(time.Minute), now, now)
	mock.ExpectQuery("UPDATE auth_codes").
		WithArgs("abc123", "acme.test", "https://cfg").
		WillReturnRows(rows)

	code, err := repo.Redeem(context.Background(), "abc123", "acme.test", "https://cfg")
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if code.UserID != "user-1" {
		t.Fatalf("unexpected user %s", code.UserID)
	}
	if code.UsedAt == nil {
		t.Fatal("used_at should be set on redemption")
	}
}
