package group

import (
	"net/http"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/kernel"
)

// Group is an organisational bracket above teams. Teams can be assigned to at
// most one group; groups never contain other groups.
type Group struct {
	ID          kernel.GroupID `json:"id" db:"id"`
	OrgID       kernel.OrgID   `json:"org_id" db:"org_id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Member is a user's membership in a group, with an admin flag instead of a
// role string.
type Member struct {
	GroupID   kernel.GroupID `json:"group_id" db:"group_id"`
	UserID    kernel.UserID  `json:"user_id" db:"user_id"`
	IsAdmin   bool           `json:"is_admin" db:"is_admin"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("GROUP")

var (
	CodeNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Group not found")
	CodeMemberNotFound  = ErrRegistry.Register("MEMBER_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Group member not found")
	CodeNameTaken       = ErrRegistry.Register("NAME_TAKEN", errx.TypeConflict, http.StatusBadRequest, "A group with this name already exists")
	CodeAlreadyMember   = ErrRegistry.Register("ALREADY_MEMBER", errx.TypeConflict, http.StatusBadRequest, "User is already a member of this group")
	CodeNotOrgMember    = ErrRegistry.Register("NOT_ORG_MEMBER", errx.TypeValidation, http.StatusBadRequest, "User is not a member of the organisation")
	CodeInvalidName     = ErrRegistry.Register("INVALID_NAME", errx.TypeValidation, http.StatusBadRequest, "Group name must be between 1 and 100 characters")
	CodeForbidden       = ErrRegistry.Register("FORBIDDEN", errx.TypeForbidden, http.StatusForbidden, "Not allowed to manage groups")
	CodeFeatureDisabled = ErrRegistry.Register("FEATURE_DISABLED", errx.TypeForbidden, http.StatusForbidden, "Groups are not enabled for this domain")
	CodeGroupLimit      = ErrRegistry.Register("GROUP_LIMIT", errx.TypeLimitExceeded, http.StatusBadRequest, "Organisation group limit reached")
	CodeMemberLimit     = ErrRegistry.Register("MEMBER_LIMIT", errx.TypeLimitExceeded, http.StatusBadRequest, "Group member limit reached")
)

func ErrNotFound() *errx.Error        { return ErrRegistry.New(CodeNotFound) }
func ErrMemberNotFound() *errx.Error  { return ErrRegistry.New(CodeMemberNotFound) }
func ErrNameTaken() *errx.Error       { return ErrRegistry.New(CodeNameTaken) }
func ErrAlreadyMember() *errx.Error   { return ErrRegistry.New(CodeAlreadyMember) }
func ErrNotOrgMember() *errx.Error    { return ErrRegistry.New(CodeNotOrgMember) }
func ErrInvalidName() *errx.Error     { return ErrRegistry.New(CodeInvalidName) }
func ErrForbidden() *errx.Error       { return ErrRegistry.New(CodeForbidden) }
func ErrFeatureDisabled() *errx.Error { return ErrRegistry.New(CodeFeatureDisabled) }
func ErrGroupLimit() *errx.Error      { return ErrRegistry.New(CodeGroupLimit) }
func ErrMemberLimit() *errx.Error     { return ErrRegistry.New(CodeMemberLimit) }
