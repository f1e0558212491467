package errx

// Type represents the category of error
type Type string

const (
	// TypeInternal represents internal server errors
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents validation errors
	TypeValidation Type = "VALIDATION"

	// TypeAuthorization represents authentication errors
	TypeAuthorization Type = "AUTHORIZATION"

	// TypeForbidden represents insufficient-privilege errors
	TypeForbidden Type = "FORBIDDEN"

	// TypeNotFound represents resource not found errors. Tenant-scope misses
	// are reported with this type as well, never as a distinct signal.
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents resource conflict errors
	TypeConflict Type = "CONFLICT"

	// TypeLimitExceeded represents capacity-cap errors
	TypeLimitExceeded Type = "LIMIT_EXCEEDED"

	// TypeLastOwner represents violations of the minimum-one-owner rule
	TypeLastOwner Type = "LAST_OWNER"

	// TypeRateLimited represents rate-limiter denials
	TypeRateLimited Type = "RATE_LIMITED"

	// TypeExternal represents errors from external collaborators
	TypeExternal Type = "EXTERNAL"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}
