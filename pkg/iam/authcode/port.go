package authcode

import (
	"context"

	"github.com/idforge/idforge/pkg/kernel"
)

// Repository defines the contract for authorization code persistence.
type Repository interface {
	// Create inserts a code row. Returns ErrCollision if the hash exists.
	Create(ctx context.Context, code AuthorizationCode) error

	// Redeem atomically marks the code used and returns it. The update is a
	// single conditional statement predicated on the hash, the issuance-time
	// domain and config URL, used_at IS NULL and the expiry; zero affected
	// rows surface as ErrInvalid with no further distinction.
	Redeem(ctx context.Context, codeHash string, domain kernel.Domain, configURL string) (*AuthorizationCode, error)
}
