package authsrv

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/auth"
	"github.com/idforge/idforge/pkg/iam/authcode/authcodesrv"
	"github.com/idforge/idforge/pkg/iam/domainrole/domainrolesrv"
	"github.com/idforge/idforge/pkg/iam/orgctx"
	"github.com/idforge/idforge/pkg/iam/ratelimit"
	"github.com/idforge/idforge/pkg/iam/token"
	"github.com/idforge/idforge/pkg/iam/user"
	"github.com/idforge/idforge/pkg/kernel"
)

// LoginService runs the two-phase login protocol: a successful credential
// check yields a one-time authorization code, and exchanging that code yields
// the access token. Tokens never travel through the redirect leg.
type LoginService struct {
	userRepo user.Repository
	hasher   auth.PasswordHasher
	totp     auth.TOTPVerifier
	social   auth.SocialVerifier
	codes    *authcodesrv.Service
	roles    *domainrolesrv.Service
	orgctx   *orgctx.Resolver
	tokens   *token.Issuer
	limiter  ratelimit.Limiter
}

func NewLoginService(
	userRepo user.Repository,
	hasher auth.PasswordHasher,
	totp auth.TOTPVerifier,
	social auth.SocialVerifier,
	codes *authcodesrv.Service,
	roles *domainrolesrv.Service,
	orgResolver *orgctx.Resolver,
	tokens *token.Issuer,
	limiter ratelimit.Limiter,
) *LoginService {
	return &LoginService{
		userRepo: userRepo,
		hasher:   hasher,
		totp:     totp,
		social:   social,
		codes:    codes,
		roles:    roles,
		orgctx:   orgResolver,
		tokens:   tokens,
		limiter:  limiter,
	}
}

// PasswordLogin verifies email, password and, when the account has one
// enrolled, the TOTP code. On success it issues a one-time authorization
// code. Every failure collapses to the same error so callers cannot probe
// which accounts exist.
func (s *LoginService) PasswordLogin(ctx context.Context, domain kernel.Domain, email, password, totpCode, configURL, redirectURL string) (string, error) {
	if err := s.checkRate(ctx, "auth:login:"+domain.String()+":"+email); err != nil {
		return "", err
	}

	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errx.IsCode(err, user.CodeUserNotFound) {
			return "", auth.ErrInvalidCredentials()
		}
		return "", err
	}

	if !u.HasPassword() {
		return "", auth.ErrInvalidCredentials()
	}
	if err := s.hasher.Compare(*u.PasswordHash, password); err != nil {
		return "", auth.ErrInvalidCredentials()
	}

	if u.HasTOTP() {
		if totpCode == "" || !s.totp.Verify(*u.TOTPSecret, totpCode) {
			return "", auth.ErrInvalidCredentials()
		}
	}

	return s.codes.Issue(ctx, u.ID, domain, configURL, redirectURL)
}

// SocialLogin exchanges a provider assertion for an identity, provisions the
// user on first sight and issues a one-time authorization code. Identities
// without a verified email are rejected.
func (s *LoginService) SocialLogin(ctx context.Context, domain kernel.Domain, provider, assertion, configURL, redirectURL string) (string, error) {
	if err := s.checkRate(ctx, "auth:social:"+domain.String()+":"+provider); err != nil {
		return "", err
	}

	identity, err := s.social.Verify(ctx, provider, assertion)
	if err != nil {
		return "", auth.ErrProviderFailed().WithDetail("provider", provider).WithDetail("error", err.Error())
	}
	if !identity.EmailVerified || identity.Email == "" {
		return "", auth.ErrInvalidCredentials()
	}

	u, err := s.userRepo.FindByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		// Known account; nothing to provision.
	case errx.IsCode(err, user.CodeUserNotFound):
		now := time.Now().UTC()
		created := user.User{
			ID:            kernel.NewUserID(uuid.NewString()),
			Email:         identity.Email,
			Name:          identity.Name,
			EmailVerified: true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.userRepo.Save(ctx, created); err != nil {
			return "", err
		}
		u = &created
	default:
		return "", err
	}

	return s.codes.Issue(ctx, u.ID, domain, configURL, redirectURL)
}

// ExchangeCode redeems a one-time code for an access token. The domain role
// is elected on first exchange, and the org block reflects live membership
// state at mint time.
func (s *LoginService) ExchangeCode(ctx context.Context, code string, domain kernel.Domain, configURL, clientID string) (string, error) {
	userID, err := s.codes.Redeem(ctx, code, domain, configURL)
	if err != nil {
		return "", err
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}

	role, err := s.roles.Ensure(ctx, domain, userID)
	if err != nil {
		return "", err
	}

	org, err := s.orgctx.Resolve(ctx, userID, domain)
	if err != nil {
		return "", err
	}

	return s.tokens.Sign(userID, u.Email, domain, role.Role, clientID, grantScopes(role.Role, org), org)
}

// grantScopes maps the caller's standing to token scopes. Domain admins get
// everything; organisation owners and admins get the elevated tier that group
// mutations require.
func grantScopes(role string, org *token.OrgClaims) []string {
	if role == iam.DomainRoleAdmin {
		return []string{"*"}
	}
	if org != nil && (org.OrgRole == iam.OrgRoleOwner || org.OrgRole == iam.OrgRoleAdmin) {
		return []string{iam.ScopeGroupsManage}
	}
	return nil
}

func (s *LoginService) checkRate(ctx context.Context, key string) error {
	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		return errx.Wrap(err, "rate limiter failed", errx.TypeExternal)
	}
	if !allowed {
		return ratelimit.ErrLimited()
	}
	return nil
}
