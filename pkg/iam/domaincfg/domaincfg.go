package domaincfg

import (
	"net/http"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
)

// Settings is the verified per-domain configuration consulted before every
// tenant-aware operation.
type Settings struct {
	MultiTenantEnabled bool
	GroupsEnabled      bool
	Limits             Limits

	// AllowedOrgRoles is the org-role allow-list. It always includes "owner".
	AllowedOrgRoles []string
}

// Limits are the capacity caps for a domain. MaxTeamsPerUser also bounds the
// size of the org claim embedded in access tokens.
type Limits struct {
	MaxOrgMembers   int
	MaxTeams        int
	MaxTeamMembers  int
	MaxGroups       int
	MaxGroupMembers int
	MaxTeamsPerUser int
}

// AllowsRole reports whether role is a legal org role on this domain.
func (s *Settings) AllowsRole(role string) bool {
	if role == iam.OrgRoleOwner {
		return true
	}
	for _, r := range s.AllowedOrgRoles {
		if r == role {
			return true
		}
	}
	return false
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("DOMAINCFG")

var (
	CodeResolveFailed = ErrRegistry.Register("RESOLVE_FAILED", errx.TypeExternal, http.StatusInternalServerError, "Domain configuration unavailable")
)

func ErrResolveFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeResolveFailed, cause)
}
