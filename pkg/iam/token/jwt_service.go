package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/idforge/idforge/pkg/config"
	"github.com/idforge/idforge/pkg/kernel"
)

// Issuer mints and verifies access tokens with a single shared symmetric key.
// There is no refresh mechanism: expiry forces re-authentication, which also
// refreshes any stale org claims.
type Issuer struct {
	secretKey []byte
	ttl       time.Duration
	issuer    string
}

func NewIssuer(secretKey string, ttl time.Duration, issuer string) *Issuer {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	if issuer == "" {
		issuer = "idforge"
	}

	return &Issuer{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		issuer:    issuer,
	}
}

func NewIssuerFromConfig(cfg *config.JWTConfig) *Issuer {
	return NewIssuer(cfg.Secret, cfg.TTL, cfg.Issuer)
}

// jwtClaims is the wire form of the access token.
type jwtClaims struct {
	Email    string     `json:"email"`
	Domain   string     `json:"domain"`
	ClientID string     `json:"client_id"`
	Role     string     `json:"role"`
	Scopes   []string   `json:"scopes,omitempty"`
	Org      *OrgClaims `json:"org,omitempty"`
	jwt.RegisteredClaims
}

// Sign mints an access token. org may be nil, in which case the claim is
// absent from the payload.
func (i *Issuer) Sign(userID kernel.UserID, email string, domain kernel.Domain, role, clientID string, scopes []string, org *OrgClaims) (string, error) {
	now := time.Now()

	claims := jwtClaims{
		Email:    email,
		Domain:   domain.String(),
		ClientID: clientID,
		Role:     role,
		Scopes:   scopes,
		Org:      org,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secretKey)
	if err != nil {
		return "", ErrSigningFailed().WithDetail("error", err.Error())
	}

	return signed, nil
}

// Verify validates a token and decodes its claims. The algorithm list is
// pinned to HS256 and the issuer is required, so algorithm-confusion and
// cross-issuer tokens fail the same way everything else does: generically.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		return i.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalid().WithDetail("error", err.Error())
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid()
	}

	return &Claims{
		UserID:    kernel.NewUserID(claims.Subject),
		Email:     claims.Email,
		Domain:    kernel.NewDomain(claims.Domain),
		ClientID:  claims.ClientID,
		Role:      claims.Role,
		Scopes:    claims.Scopes,
		Org:       claims.Org,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
