package domainroleinfra_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/domainrole"
	"github.com/idforge/idforge/pkg/iam/domainrole/domainroleinfra"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func newMockRepo(t *testing.T) (domainrole.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return domainroleinfra.NewPostgresDomainRoleRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestFind_NoRowsMapsToNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT domain, user_id, role, created_at").
		WithArgs("acme.test", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"domain", "user_id", "role", "created_at"}))

	_, err := repo.Find(context.Background(), "acme.test", "user-1")
	if !errx.IsCode(err, domainrole.CodeNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestFind_ReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"domain", "user_id", "role", "created_at"}).
		AddRow("acme.test", "user-1", "admin", time.Now())
	mock.ExpectQuery("SELECT domain, user_id, role, created_at").
		WithArgs("acme.test", "user-1").
		WillReturnRows(rows)

	role, err := repo.Find(context.Background(), "acme.test", "user-1")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if role.Role != iam.DomainRoleAdmin {
		t.Fatalf("unexpected role %q", role.Role)
	}
}

func TestCreate_AdminIndexViolationMapsToAdminTaken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO domain_roles").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "domain_roles_single_admin_idx"})

	err := repo.Create(context.Background(), domainrole.DomainRole{
		Domain: "acme.test", UserID: "user-2", Role: iam.DomainRoleAdmin, CreatedAt: time.Now(),
	})
	if !errx.IsCode(err, domainrole.CodeAdminTaken) {
		t.Fatalf("expected admin-taken, got %v", err)
	}
}

func TestCreate_PairViolationMapsToPairExists(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO domain_roles").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "domain_roles_pkey"})

	err := repo.Create(context.Background(), domainrole.DomainRole{
		Domain: "acme.test", UserID: "user-1", Role: iam.DomainRoleUser, CreatedAt: time.Now(),
	})
	if !errx.IsCode(err, domainrole.CodePairExists) {
		t.Fatalf("expected pair-exists, got %v", err)
	}
}

func TestCountAdmins(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("acme.test").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.CountAdmins(context.Background(), "acme.test")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}
}
