package errx

// Common error constructors for convenience

// Internal creates an internal server error
func Internal(message string) *Error {
	return New(message, TypeInternal)
}

// Validation creates a validation error
func Validation(message string) *Error {
	return New(message, TypeValidation)
}

// NotFound creates a not found error
func NotFound(message string) *Error {
	return New(message, TypeNotFound)
}

// Unauthorized creates an authentication error
func Unauthorized(message string) *Error {
	return New(message, TypeAuthorization)
}

// Forbidden creates an insufficient-privilege error
func Forbidden(message string) *Error {
	return New(message, TypeForbidden)
}

// Conflict creates a conflict error
func Conflict(message string) *Error {
	return New(message, TypeConflict)
}

// LimitExceeded creates a capacity-cap error
func LimitExceeded(message string) *Error {
	return New(message, TypeLimitExceeded)
}

// RateLimited creates a rate-limiter denial error
func RateLimited(message string) *Error {
	return New(message, TypeRateLimited)
}

// External creates an external collaborator error
func External(message string) *Error {
	return New(message, TypeExternal)
}
