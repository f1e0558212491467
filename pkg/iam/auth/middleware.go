package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/token"
	"github.com/idforge/idforge/pkg/kernel"
)

// TokenMiddleware verifies bearer tokens and injects the auth context into
// the request.
type TokenMiddleware struct {
	issuer *token.Issuer
}

func NewTokenMiddleware(issuer *token.Issuer) *TokenMiddleware {
	return &TokenMiddleware{issuer: issuer}
}

// Authenticate validates the access token from the Authorization header,
// falling back to the access_token cookie.
func (m *TokenMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return iam.ErrUnauthorized()
		}

		claims, err := m.issuer.Verify(raw)
		if err != nil {
			return err
		}

		authContext := &kernel.AuthContext{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Domain:   claims.Domain,
			ClientID: claims.ClientID,
			Role:     claims.Role,
			Scopes:   claims.Scopes,
		}
		if !authContext.IsValid() {
			return iam.ErrInvalidToken()
		}

		c.Locals(string(kernel.AuthContextKey), authContext)
		c.Locals("org", claims.Org)

		return c.Next()
	}
}

// RequireScope gates a route on a token scope.
func (m *TokenMiddleware) RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext := FromContext(c)
		if authContext == nil {
			return iam.ErrUnauthorized()
		}
		if !authContext.HasScope(scope) {
			return iam.ErrAccessDenied().WithDetail("scope", scope)
		}
		return c.Next()
	}
}

// RequireDomainAdmin gates a route on the elevated domain role.
func (m *TokenMiddleware) RequireDomainAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext := FromContext(c)
		if authContext == nil {
			return iam.ErrUnauthorized()
		}
		if authContext.Role != iam.DomainRoleAdmin {
			return iam.ErrAccessDenied()
		}
		return c.Next()
	}
}

// FromContext returns the auth context injected by Authenticate, or nil.
func FromContext(c *fiber.Ctx) *kernel.AuthContext {
	authContext, ok := c.Locals(string(kernel.AuthContextKey)).(*kernel.AuthContext)
	if !ok {
		return nil
	}
	return authContext
}

// OrgFromContext returns the token's org claims, or nil when the token
// carries none.
func OrgFromContext(c *fiber.Ctx) *token.OrgClaims {
	org, ok := c.Locals("org").(*token.OrgClaims)
	if !ok {
		return nil
	}
	return org
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1]
		}
	}
	return c.Cookies("access_token")
}
