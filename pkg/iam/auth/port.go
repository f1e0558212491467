package auth

import "context"

// SocialVerifier exchanges a provider assertion (OAuth code, ID token) for a
// verified identity. Implementations own the provider-specific handshake and
// its timeouts; failures are opaque to the login flow.
type SocialVerifier interface {
	Verify(ctx context.Context, provider, assertion string) (*Identity, error)
}

// PasswordHasher hashes and compares login passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Compare returns a nil error only when password matches the hash.
	Compare(hash, password string) error
}

// TOTPVerifier checks a time-based one-time code against a stored secret.
type TOTPVerifier interface {
	Verify(secret, code string) bool
}
