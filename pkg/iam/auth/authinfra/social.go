package authinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/idforge/idforge/pkg/iam/auth"
)

// HTTPSocialVerifier implements auth.SocialVerifier against provider userinfo
// endpoints: the assertion is presented as a bearer token and the provider
// answers with the identity it vouches for.
type HTTPSocialVerifier struct {
	// endpoints maps a provider name to its userinfo URL.
	endpoints  map[string]string
	httpClient *http.Client
}

func NewHTTPSocialVerifier(endpoints map[string]string, httpClient *http.Client) *HTTPSocialVerifier {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	return &HTTPSocialVerifier{
		endpoints:  endpoints,
		httpClient: httpClient,
	}
}

// userinfoResponse is the subset of the OIDC userinfo claims the login flow
// consumes.
type userinfoResponse struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

func (v *HTTPSocialVerifier) Verify(ctx context.Context, provider, assertion string) (*auth.Identity, error) {
	endpoint, ok := v.endpoints[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+assertion)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var info userinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return &auth.Identity{
		Provider:      provider,
		Subject:       info.Subject,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
	}, nil
}
