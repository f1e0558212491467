package ratelimit

import (
	"context"
	"net/http"

	"github.com/idforge/idforge/pkg/errx"
)

// Limiter is the external rate-limiting collaborator consulted before the
// guarded mutations (create-organisation, add-member, create-team). It
// returns allow/deny and nothing else; the engine never retries on its
// behalf.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("RATELIMIT")

var (
	CodeLimited = ErrRegistry.Register("LIMITED", errx.TypeRateLimited, http.StatusTooManyRequests, "Rate limit exceeded")
)

func ErrLimited() *errx.Error {
	return ErrRegistry.New(CodeLimited)
}
