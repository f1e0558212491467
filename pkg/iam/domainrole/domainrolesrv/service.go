package domainrolesrv

import (
	"context"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/domainrole"
	"github.com/idforge/idforge/pkg/kernel"
)

// Service elects the role a user holds on a domain: the first user ever to
// log in on a domain becomes its admin, everyone else a regular user.
type Service struct {
	repo domainrole.Repository
}

func NewService(repo domainrole.Repository) *Service {
	return &Service{repo: repo}
}

// Ensure returns the role for (domain, user), assigning one on first call.
// Idempotent: repeated calls return the stored row without mutation.
//
// The decision is made by attempting inserts and branching on the database's
// uniqueness signals, never by read-then-write, so N concurrent first logins
// on a fresh domain produce exactly one admin across any number of processes.
func (s *Service) Ensure(ctx context.Context, domain kernel.Domain, userID kernel.UserID) (*domainrole.DomainRole, error) {
	existing, err := s.repo.Find(ctx, domain, userID)
	if err == nil {
		return existing, nil
	}
	if !errx.IsCode(err, domainrole.CodeNotFound) {
		return nil, err
	}

	candidate := domainrole.DomainRole{
		Domain:    domain,
		UserID:    userID,
		Role:      iam.DomainRoleAdmin,
		CreatedAt: time.Now().UTC(),
	}

	err = s.repo.Create(ctx, candidate)
	switch {
	case err == nil:
		return &candidate, nil
	case errx.IsCode(err, domainrole.CodeAdminTaken):
		// Lost the election; fall through to the standard role.
	case errx.IsCode(err, domainrole.CodePairExists):
		// Concurrent call for the same pair won; return its row.
		return s.repo.Find(ctx, domain, userID)
	default:
		return nil, err
	}

	candidate.Role = iam.DomainRoleUser
	err = s.repo.Create(ctx, candidate)
	switch {
	case err == nil:
		return &candidate, nil
	case errx.IsCode(err, domainrole.CodePairExists):
		return s.repo.Find(ctx, domain, userID)
	default:
		return nil, err
	}
}
