package domainrole

import (
	"net/http"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/kernel"
)

// DomainRole records the role a user holds on a domain. At most one row per
// domain carries the admin role; the database enforces this with a partial
// unique index, and that constraint, not any in-process lock, is what makes
// first-login election race-safe.
type DomainRole struct {
	Domain    kernel.Domain `db:"domain" json:"domain"`
	UserID    kernel.UserID `db:"user_id" json:"user_id"`
	Role      string        `db:"role" json:"role"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("DOMAINROLE")

var (
	// CodeAdminTaken signals the one-admin-per-domain constraint fired.
	CodeAdminTaken = ErrRegistry.Register("ADMIN_TAKEN", errx.TypeConflict, http.StatusBadRequest, "Domain already has an admin")

	// CodePairExists signals a role row already exists for (domain, user).
	CodePairExists = ErrRegistry.Register("PAIR_EXISTS", errx.TypeConflict, http.StatusBadRequest, "Role already assigned for this user and domain")

	CodeNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Domain role not found")
)

func ErrAdminTaken() *errx.Error {
	return ErrRegistry.New(CodeAdminTaken)
}

func ErrPairExists() *errx.Error {
	return ErrRegistry.New(CodePairExists)
}

func ErrNotFound() *errx.Error {
	return ErrRegistry.New(CodeNotFound)
}
