package iam

import (
	"net/http"

	"github.com/idforge/idforge/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthorized = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Unauthorized")
	CodeInvalidToken = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired token")
	CodeAccessDenied = ErrRegistry.Register("ACCESS_DENIED", errx.TypeForbidden, http.StatusForbidden, "Access denied")
)

// Helper functions
func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrAccessDenied() *errx.Error {
	return ErrRegistry.New(CodeAccessDenied)
}

// ============================================================================
// Roles & Scopes
// ============================================================================

// Domain-level roles. The first user ever to complete a login on a domain is
// elected admin; everyone after that is a regular user.
const (
	DomainRoleAdmin = "admin"
	DomainRoleUser  = "user"
)

// Organisation roles with reserved semantics. Other role names are free text
// validated against the per-domain allow-list.
const (
	OrgRoleOwner = "owner"
	OrgRoleAdmin = "admin"
)

// Team roles. "lead" carries no authorization semantics; it is a display and
// routing designation consumed by client products.
const (
	TeamRoleLead   = "lead"
	TeamRoleMember = "member"
)

// ScopeGroupsManage is the elevated trust tier required for group mutations.
// Group membership spans teams, so ordinary org admins do not hold it.
const ScopeGroupsManage = "groups:manage"
