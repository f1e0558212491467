package kernel

// ============================================================================
// Context Types
// ============================================================================

// AuthContext is the authentication context injected into each request after
// token verification.
type AuthContext struct {
	UserID   UserID   `json:"user_id"`
	Email    string   `json:"email"`
	Domain   Domain   `json:"domain"`
	ClientID string   `json:"client_id"`
	Role     string   `json:"role"`
	Scopes   []string `json:"scopes"`
}

// IsValid verifies the AuthContext carries the minimum identity fields.
func (ac *AuthContext) IsValid() bool {
	return !ac.UserID.IsEmpty() && !ac.Domain.IsEmpty()
}

// ============================================================================
// Scope Management Methods
// ============================================================================

// HasScope verifies the context holds a specific scope
func (ac *AuthContext) HasScope(scope string) bool {
	for _, s := range ac.Scopes {
		// Exact match or wildcard "*"
		if s == scope || s == "*" {
			return true
		}
		// Wildcard match (e.g., "groups:*" matches "groups:manage")
		if len(s) > 2 && s[len(s)-2:] == ":*" {
			prefix := s[:len(s)-2]
			if len(scope) > len(prefix) && scope[:len(prefix)] == prefix && scope[len(prefix)] == ':' {
				return true
			}
		}
	}
	return false
}

// HasAnyScope verifies the context holds at least one of the given scopes
func (ac *AuthContext) HasAnyScope(scopes ...string) bool {
	for _, scope := range scopes {
		if ac.HasScope(scope) {
			return true
		}
	}
	return false
}

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// AuthContextKey is the key under which AuthContext is stored
	AuthContextKey ContextKey = "auth_context"

	// RequestIDKey is the key under which the request ID is stored
	RequestIDKey ContextKey = "request_id"
)
