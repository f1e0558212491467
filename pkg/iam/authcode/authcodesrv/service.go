package authcodesrv

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam/authcode"
	"github.com/idforge/idforge/pkg/kernel"
)

// Hash collisions are astronomically unlikely with 256-bit codes; the retry
// bound exists so a broken entropy source fails fast instead of looping.
const maxGenerateAttempts = 3

// Service issues and redeems one-time authorization codes.
type Service struct {
	repo   authcode.Repository
	pepper string
	ttl    time.Duration
}

func NewService(repo authcode.Repository, pepper string, ttl time.Duration) *Service {
	return &Service{repo: repo, pepper: pepper, ttl: ttl}
}

// Issue creates a short-lived one-time code binding the user to the domain,
// config URL and redirect URL it was issued for. The returned raw code is the
// only copy that will ever exist.
func (s *Service) Issue(ctx context.Context, userID kernel.UserID, domain kernel.Domain, configURL, redirectURL string) (string, error) {
	now := time.Now().UTC()

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := authcode.GenerateCode()
		if err != nil {
			return "", err
		}

		row := authcode.AuthorizationCode{
			ID:          uuid.NewString(),
			CodeHash:    authcode.HashCode(code, s.pepper),
			UserID:      userID,
			Domain:      domain,
			ConfigURL:   configURL,
			RedirectURL: redirectURL,
			ExpiresAt:   now.Add(s.ttl),
			CreatedAt:   now,
		}

		err = s.repo.Create(ctx, row)
		if err == nil {
			return code, nil
		}
		if !errx.IsCode(err, authcode.CodeCollision) {
			return "", err
		}
	}

	return "", authcode.ErrGenerationFailed().WithDetail("attempts", maxGenerateAttempts)
}

// Redeem consumes a code exactly once and returns the user it was issued to.
// The domain and config URL must match the issuance-time values. Every
// failure mode returns the same generic error.
func (s *Service) Redeem(ctx context.Context, code string, domain kernel.Domain, configURL string) (kernel.UserID, error) {
	row, err := s.repo.Redeem(ctx, authcode.HashCode(code, s.pepper), domain, configURL)
	if err != nil {
		return "", err
	}
	return row.UserID, nil
}
