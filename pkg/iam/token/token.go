package token

import (
	"net/http"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/kernel"
)

// OrgClaims is the optional multi-tenant block embedded in access tokens.
// It is omitted entirely (not null, not empty) when the user has no
// organisation on the domain or multi-tenant features are disabled.
type OrgClaims struct {
	OrgID     string            `json:"org_id"`
	OrgRole   string            `json:"org_role"`
	Teams     []string          `json:"teams"`
	TeamRoles map[string]string `json:"team_roles"`

	// Present only when groups are enabled for the domain.
	Groups     []string `json:"groups,omitempty"`
	GroupAdmin []string `json:"group_admin,omitempty"`
}

// Claims is the decoded access-token payload.
type Claims struct {
	UserID    kernel.UserID `json:"user_id"`
	Email     string        `json:"email"`
	Domain    kernel.Domain `json:"domain"`
	ClientID  string        `json:"client_id"`
	Role      string        `json:"role"`
	Scopes    []string      `json:"scopes,omitempty"`
	Org       *OrgClaims    `json:"org,omitempty"`
	IssuedAt  time.Time     `json:"iat"`
	ExpiresAt time.Time     `json:"exp"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("TOKEN")

var (
	// CodeInvalid covers every verification failure. Structure, signature,
	// algorithm, issuer and expiry problems are externally identical.
	CodeInvalid = ErrRegistry.Register("INVALID", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid token")

	CodeSigningFailed = ErrRegistry.Register("SIGNING_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token signing failed")
)

func ErrInvalid() *errx.Error {
	return ErrRegistry.New(CodeInvalid)
}

func ErrSigningFailed() *errx.Error {
	return ErrRegistry.New(CodeSigningFailed)
}
