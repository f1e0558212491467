package team

import (
	"net/http"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/kernel"
)

// Team is a working unit inside an organisation. Every organisation owns
// exactly one default team; members of the organisation always belong to at
// least one team.
type Team struct {
	ID          kernel.TeamID   `json:"id" db:"id"`
	OrgID       kernel.OrgID    `json:"org_id" db:"org_id"`
	GroupID     *kernel.GroupID `json:"group_id,omitempty" db:"group_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	IsDefault   bool            `json:"is_default" db:"is_default"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Member is a user's enrollment in a team.
type Member struct {
	TeamID    kernel.TeamID `json:"team_id" db:"team_id"`
	UserID    kernel.UserID `json:"user_id" db:"user_id"`
	Role      string        `json:"role" db:"role"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// IsLead reports whether the member holds the lead designation.
func (m *Member) IsLead() bool {
	return m.Role == iam.TeamRoleLead
}

// ValidRole reports whether role is one of the two team roles.
func ValidRole(role string) bool {
	return role == iam.TeamRoleLead || role == iam.TeamRoleMember
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("TEAM")

var (
	CodeNotFound         = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Team not found")
	CodeMemberNotFound   = ErrRegistry.Register("MEMBER_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Team member not found")
	CodeNameTaken        = ErrRegistry.Register("NAME_TAKEN", errx.TypeConflict, http.StatusBadRequest, "A team with this name already exists")
	CodeAlreadyMember    = ErrRegistry.Register("ALREADY_MEMBER", errx.TypeConflict, http.StatusBadRequest, "User is already a member of this team")
	CodeDefaultProtected = ErrRegistry.Register("DEFAULT_PROTECTED", errx.TypeValidation, http.StatusBadRequest, "The default team cannot be modified or deleted")
	CodeNotOrgMember     = ErrRegistry.Register("NOT_ORG_MEMBER", errx.TypeValidation, http.StatusBadRequest, "User is not a member of the organisation")
	CodeInvalidRole      = ErrRegistry.Register("INVALID_ROLE", errx.TypeValidation, http.StatusBadRequest, "Invalid team role")
	CodeInvalidName      = ErrRegistry.Register("INVALID_NAME", errx.TypeValidation, http.StatusBadRequest, "Team name must be between 1 and 100 characters")
	CodeForbidden        = ErrRegistry.Register("FORBIDDEN", errx.TypeForbidden, http.StatusForbidden, "Not allowed to manage this team")
	CodeLastTeam         = ErrRegistry.Register("LAST_TEAM", errx.TypeValidation, http.StatusBadRequest, "Cannot remove a member from their last team")
	CodeTeamLimit        = ErrRegistry.Register("TEAM_LIMIT", errx.TypeLimitExceeded, http.StatusBadRequest, "Organisation team limit reached")
	CodeMemberLimit      = ErrRegistry.Register("MEMBER_LIMIT", errx.TypeLimitExceeded, http.StatusBadRequest, "Team member limit reached")
	CodeUserTeamLimit    = ErrRegistry.Register("USER_TEAM_LIMIT", errx.TypeLimitExceeded, http.StatusBadRequest, "User belongs to too many teams")
)

func ErrNotFound() *errx.Error         { return ErrRegistry.New(CodeNotFound) }
func ErrMemberNotFound() *errx.Error   { return ErrRegistry.New(CodeMemberNotFound) }
func ErrNameTaken() *errx.Error        { return ErrRegistry.New(CodeNameTaken) }
func ErrAlreadyMember() *errx.Error    { return ErrRegistry.New(CodeAlreadyMember) }
func ErrDefaultProtected() *errx.Error { return ErrRegistry.New(CodeDefaultProtected) }
func ErrNotOrgMember() *errx.Error     { return ErrRegistry.New(CodeNotOrgMember) }
func ErrInvalidRole() *errx.Error      { return ErrRegistry.New(CodeInvalidRole) }
func ErrInvalidName() *errx.Error      { return ErrRegistry.New(CodeInvalidName) }
func ErrForbidden() *errx.Error        { return ErrRegistry.New(CodeForbidden) }
func ErrLastTeam() *errx.Error         { return ErrRegistry.New(CodeLastTeam) }
func ErrTeamLimit() *errx.Error        { return ErrRegistry.New(CodeTeamLimit) }
func ErrMemberLimit() *errx.Error      { return ErrRegistry.New(CodeMemberLimit) }
func ErrUserTeamLimit() *errx.Error    { return ErrRegistry.New(CodeUserTeamLimit) }
