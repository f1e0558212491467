package authcode

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/kernel"
)

// codeBytes gives 256 bits of entropy per authorization code.
const codeBytes = 32

// AuthorizationCode is the persisted form of a one-time code. Only the keyed
// hash of the secret is stored; the raw code exists solely in the redirect
// handed to the client. Redemption is the terminal transition: used_at is
// set exactly once and the row is never touched again.
type AuthorizationCode struct {
	ID          string        `db:"id" json:"id"`
	CodeHash    string        `db:"code_hash" json:"-"`
	UserID      kernel.UserID `db:"user_id" json:"user_id"`
	Domain      kernel.Domain `db:"domain" json:"domain"`
	ConfigURL   string        `db:"config_url" json:"config_url"`
	RedirectURL string        `db:"redirect_url" json:"redirect_url"`
	ExpiresAt   time.Time     `db:"expires_at" json:"expires_at"`
	UsedAt      *time.Time    `db:"used_at" json:"used_at"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// GenerateCode returns a new opaque base64url code.
func GenerateCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to generate authorization code", errx.TypeInternal)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashCode computes the keyed hash under which a code is stored. The pepper
// never leaves the server, so a leaked table cannot be replayed.
func HashCode(code, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTHCODE")

var (
	// CodeInvalid is the single failure every redemption problem collapses
	// into. Unknown, expired, already used and wrong-tenant are externally
	// indistinguishable.
	CodeInvalid = ErrRegistry.Register("INVALID", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid authorization code")

	// CodeCollision signals the generated code hash already exists.
	CodeCollision = ErrRegistry.Register("COLLISION", errx.TypeConflict, http.StatusBadRequest, "Authorization code collision")

	CodeGenerationFailed = ErrRegistry.Register("GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Authorization code generation failed")
)

func ErrInvalid() *errx.Error {
	return ErrRegistry.New(CodeInvalid)
}

func ErrCollision() *errx.Error {
	return ErrRegistry.New(CodeCollision)
}

func ErrGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeGenerationFailed)
}
