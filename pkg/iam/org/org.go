package org

import (
	"net/http"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/kernel"
)

// DefaultTeamName is the name given to the team created atomically with every
// organisation. That team can never be deleted and never loses its flag.
const DefaultTeamName = "Default"

// Organisation is a tenant on a domain. OwnerID always references a member
// holding the reserved owner role; an organisation cannot exist without one.
type Organisation struct {
	ID        kernel.OrgID  `db:"id" json:"id"`
	Domain    kernel.Domain `db:"domain" json:"domain"`
	Name      string        `db:"name" json:"name"`
	Slug      string        `db:"slug" json:"slug"`
	OwnerID   kernel.UserID `db:"owner_id" json:"owner_id"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// Member is a user's membership in an organisation. The domain column is
// denormalized onto the row so the database itself enforces the
// one-organisation-per-domain-per-user rule with a unique constraint.
type Member struct {
	OrgID     kernel.OrgID  `db:"org_id" json:"org_id"`
	UserID    kernel.UserID `db:"user_id" json:"user_id"`
	Domain    kernel.Domain `db:"domain" json:"domain"`
	Role      string        `db:"role" json:"role"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// CanManageMembers reports whether this member may add or remove others.
func (m *Member) CanManageMembers() bool {
	return m.Role == iam.OrgRoleOwner || m.Role == iam.OrgRoleAdmin
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("ORG")

var (
	CodeNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Organisation not found")
	CodeMemberNotFound  = ErrRegistry.Register("MEMBER_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Organisation member not found")
	CodeForbidden       = ErrRegistry.Register("FORBIDDEN", errx.TypeForbidden, http.StatusForbidden, "Insufficient organisation role")
	CodeAlreadyMember   = ErrRegistry.Register("ALREADY_MEMBER", errx.TypeConflict, http.StatusBadRequest, "User already belongs to an organisation on this domain")
	CodeSlugTaken       = ErrRegistry.Register("SLUG_TAKEN", errx.TypeConflict, http.StatusBadRequest, "Organisation slug already in use")
	CodeSlugExhausted   = ErrRegistry.Register("SLUG_EXHAUSTED", errx.TypeConflict, http.StatusBadRequest, "Could not derive a unique organisation slug")
	CodeInvalidName     = ErrRegistry.Register("INVALID_NAME", errx.TypeValidation, http.StatusBadRequest, "Organisation name cannot be slugged")
	CodeRoleNotAllowed  = ErrRegistry.Register("ROLE_NOT_ALLOWED", errx.TypeValidation, http.StatusBadRequest, "Role is not in the domain allow-list")
	CodeLastOwner       = ErrRegistry.Register("LAST_OWNER", errx.TypeLastOwner, http.StatusBadRequest, "Organisation must retain an owner")
	CodeMemberLimit     = ErrRegistry.Register("MEMBER_LIMIT", errx.TypeLimitExceeded, http.StatusBadRequest, "Organisation member limit reached")
	CodeFeatureDisabled = ErrRegistry.Register("FEATURE_DISABLED", errx.TypeForbidden, http.StatusForbidden, "Multi-tenant features are disabled for this domain")
)

func ErrNotFound() *errx.Error        { return ErrRegistry.New(CodeNotFound) }
func ErrMemberNotFound() *errx.Error  { return ErrRegistry.New(CodeMemberNotFound) }
func ErrForbidden() *errx.Error       { return ErrRegistry.New(CodeForbidden) }
func ErrAlreadyMember() *errx.Error   { return ErrRegistry.New(CodeAlreadyMember) }
func ErrSlugTaken() *errx.Error       { return ErrRegistry.New(CodeSlugTaken) }
func ErrSlugExhausted() *errx.Error   { return ErrRegistry.New(CodeSlugExhausted) }
func ErrInvalidName() *errx.Error     { return ErrRegistry.New(CodeInvalidName) }
func ErrRoleNotAllowed() *errx.Error  { return ErrRegistry.New(CodeRoleNotAllowed) }
func ErrLastOwner() *errx.Error       { return ErrRegistry.New(CodeLastOwner) }
func ErrMemberLimit() *errx.Error     { return ErrRegistry.New(CodeMemberLimit) }
func ErrFeatureDisabled() *errx.Error { return ErrRegistry.New(CodeFeatureDisabled) }
