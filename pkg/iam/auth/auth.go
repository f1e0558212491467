package auth

import (
	"net/http"

	"github.com/idforge/idforge/pkg/errx"
)

// Identity is the verified result of a social-provider exchange. The provider
// handshake itself happens outside this service; only the settled outcome
// crosses the boundary.
type Identity struct {
	Provider      string `json:"provider"`
	Subject       string `json:"subject"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	// CodeInvalidCredentials is the single externally visible login failure.
	// Wrong password, unknown email, missing TOTP and unverified provider
	// email all collapse into it.
	CodeInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid credentials")

	CodeProviderFailed = ErrRegistry.Register("PROVIDER_FAILED", errx.TypeExternal, http.StatusInternalServerError, "Identity provider exchange failed")
)

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrProviderFailed() *errx.Error {
	return ErrRegistry.New(CodeProviderFailed)
}
