package domaincfg

import (
	"context"

	"github.com/idforge/idforge/pkg/kernel"
)

// Resolver returns the verified configuration for a domain. The concrete
// resolver is an external collaborator; the engine never retries it and treats
// any failure as opaque.
type Resolver interface {
	Resolve(ctx context.Context, domain kernel.Domain) (*Settings, error)
}
