package user

import (
	"net/http"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/kernel"
)

// User is the minimal identity record the engine needs. Profile management
// lives elsewhere; these rows outlive every membership that references them.
type User struct {
	ID            kernel.UserID `db:"id" json:"id"`
	Email         string        `db:"email" json:"email"`
	Name          string        `db:"name" json:"name"`
	EmailVerified bool          `db:"email_verified" json:"email_verified"`
	PasswordHash  *string       `db:"password_hash" json:"-"`
	TOTPSecret    *string       `db:"totp_secret" json:"-"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether password login is available for this user.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasTOTP reports whether a second factor is enrolled.
func (u *User) HasTOTP() bool {
	return u.TOTPSecret != nil && *u.TOTPSecret != ""
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeEmailTaken    = ErrRegistry.Register("EMAIL_TAKEN", errx.TypeConflict, http.StatusBadRequest, "Email already registered")
	CodeInvalidRecord = ErrRegistry.Register("INVALID_RECORD", errx.TypeValidation, http.StatusBadRequest, "Invalid user record")
)

func ErrUserNotFound() *errx.Error {
	return ErrRegistry.New(CodeUserNotFound)
}

func ErrEmailTaken() *errx.Error {
	return ErrRegistry.New(CodeEmailTaken)
}

func ErrInvalidRecord() *errx.Error {
	return ErrRegistry.New(CodeInvalidRecord)
}
