package authsrv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/auth"
	"github.com/idforge/idforge/pkg/iam/auth/authsrv"
	"github.com/idforge/idforge/pkg/iam/authcode"
	"github.com/idforge/idforge/pkg/iam/authcode/authcodesrv"
	"github.com/idforge/idforge/pkg/iam/domaincfg"
	"github.com/idforge/idforge/pkg/iam/domainrole"
	"github.com/idforge/idforge/pkg/iam/domainrole/domainrolesrv"
	"github.com/idforge/idforge/pkg/iam/group"
	"github.com/idforge/idforge/pkg/iam/org"
	"github.com/idforge/idforge/pkg/iam/orgctx"
	"github.com/idforge/idforge/pkg/iam/ratelimit"
	"github.com/idforge/idforge/pkg/iam/team"
	"github.com/idforge/idforge/pkg/iam/token"
	"github.com/idforge/idforge/pkg/iam/user"
	"github.com/idforge/idforge/pkg/kernel"
)

// ----------------------------------------------------------------------------
// Fakes
// ----------------------------------------------------------------------------

type fakeUserRepo struct {
	byEmail map[string]*user.User
	saved   []user.User
}

func newFakeUserRepo(users ...user.User) *fakeUserRepo {
	f := &fakeUserRepo{byEmail: make(map[string]*user.User)}
	for i := range users {
		f.byEmail[users[i].Email] = &users[i]
	}
	return f
}

func (f *fakeUserRepo) FindByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound()
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound()
}

func (f *fakeUserRepo) Save(_ context.Context, u user.User) error {
	stored := u
	f.byEmail[u.Email] = &stored
	f.saved = append(f.saved, u)
	return nil
}

func (f *fakeUserRepo) Exists(_ context.Context, id kernel.UserID) (bool, error) {
	_, err := f.FindByID(context.Background(), id)
	return err == nil, nil
}

// fakeHasher accepts a password when the stored hash is "hashed:" + password.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return auth.ErrInvalidCredentials()
	}
	return nil
}

type fakeTOTP struct{}

func (fakeTOTP) Verify(secret, code string) bool { return secret == "secret" && code == "123456" }

type fakeSocial struct {
	identity *auth.Identity
	err      error
}

func (f *fakeSocial) Verify(context.Context, string, string) (*auth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeCodeRepo struct {
	rows map[string]*authcode.AuthorizationCode
}

func (f *fakeCodeRepo) Create(_ context.Context, code authcode.AuthorizationCode) error {
	if _, exists := f.rows[code.CodeHash]; exists {
		return authcode.ErrCollision()
	}
	stored := code
	f.rows[code.CodeHash] = &stored
	return nil
}

func (f *fakeCodeRepo) Redeem(_ context.Context, codeHash string, domain kernel.Domain, configURL string) (*authcode.AuthorizationCode, error) {
	row, ok := f.rows[codeHash]
	if !ok || row.Domain != domain || row.ConfigURL != configURL ||
		row.UsedAt != nil || time.Now().After(row.ExpiresAt) {
		return nil, authcode.ErrInvalid()
	}
	now := time.Now()
	row.UsedAt = &now
	return row, nil
}

type fakeRoleRepo struct {
	rows map[string]*domainrole.DomainRole
}

func roleKey(domain kernel.Domain, userID kernel.UserID) string {
	return domain.String() + "|" + userID.String()
}

func (f *fakeRoleRepo) Find(_ context.Context, domain kernel.Domain, userID kernel.UserID) (*domainrole.DomainRole, error) {
	if r, ok := f.rows[roleKey(domain, userID)]; ok {
		return r, nil
	}
	return nil, domainrole.ErrNotFound()
}

func (f *fakeRoleRepo) Create(_ context.Context, role domainrole.DomainRole) error {
	if _, ok := f.rows[roleKey(role.Domain, role.UserID)]; ok {
		return domainrole.ErrPairExists()
	}
	if role.Role == iam.DomainRoleAdmin {
		for _, r := range f.rows {
			if r.Domain == role.Domain && r.Role == iam.DomainRoleAdmin {
				return domainrole.ErrAdminTaken()
			}
		}
	}
	stored := role
	f.rows[roleKey(role.Domain, role.UserID)] = &stored
	return nil
}

func (f *fakeRoleRepo) CountAdmins(context.Context, kernel.Domain) (int, error) { return 0, nil }

type stubOrgRepo struct {
	org.Repository
	member *org.Member
}

func (s *stubOrgRepo) FindMemberByDomain(context.Context, kernel.Domain, kernel.UserID) (*org.Member, error) {
	if s.member == nil {
		return nil, org.ErrMemberNotFound()
	}
	return s.member, nil
}

type stubTeamRepo struct{ team.Repository }

func (stubTeamRepo) ListUserMemberships(context.Context, kernel.OrgID, kernel.UserID) ([]team.Member, error) {
	return nil, nil
}

type stubGroupRepo struct{ group.Repository }

func (stubGroupRepo) ListUserGroups(context.Context, kernel.OrgID, kernel.UserID) ([]group.Member, error) {
	return nil, nil
}

type staticResolver struct {
	settings domaincfg.Settings
}

func (r *staticResolver) Resolve(context.Context, kernel.Domain) (*domaincfg.Settings, error) {
	s := r.settings
	return &s, nil
}

type fakeLimiter struct {
	deny bool
}

func (l *fakeLimiter) Allow(context.Context, string) (bool, error) { return !l.deny, nil }

// ----------------------------------------------------------------------------
// Harness
// ----------------------------------------------------------------------------

const testDomain = kernel.Domain("acme.test")

type fixture struct {
	svc     *authsrv.LoginService
	users   *fakeUserRepo
	social  *fakeSocial
	limiter *fakeLimiter
	orgRepo *stubOrgRepo
	issuer  *token.Issuer
}

func newFixture(t *testing.T, users ...user.User) *fixture {
	t.Helper()

	userRepo := newFakeUserRepo(users...)
	social := &fakeSocial{}
	limiter := &fakeLimiter{}
	orgRepo := &stubOrgRepo{}

	codes := authcodesrv.NewService(&fakeCodeRepo{rows: make(map[string]*authcode.AuthorizationCode)}, "pepper", time.Minute)
	roles := domainrolesrv.NewService(&fakeRoleRepo{rows: make(map[string]*domainrole.DomainRole)})
	orgResolver := orgctx.NewResolver(orgRepo, stubTeamRepo{}, stubGroupRepo{},
		&staticResolver{settings: domaincfg.Settings{MultiTenantEnabled: true}})
	issuer := token.NewIssuer("test-secret", time.Minute, "idforge-test")

	return &fixture{
		svc: authsrv.NewLoginService(
			userRepo, fakeHasher{}, fakeTOTP{}, social,
			codes, roles, orgResolver, issuer, limiter,
		),
		users:   userRepo,
		social:  social,
		limiter: limiter,
		orgRepo: orgRepo,
		issuer:  issuer,
	}
}

func strptr(s string) *string { return &s }

func passwordUser(id kernel.UserID, email, password string) user.User {
	return user.User{ID: id, Email: email, EmailVerified: true, PasswordHash: strptr("hashed:" + password)}
}

// ----------------------------------------------------------------------------
// Password login
// ----------------------------------------------------------------------------

func TestPasswordLogin_IssuesCode(t *testing.T) {
	f := newFixture(t, passwordUser("user-1", "a@acme.test", "pw"))

	code, err := f.svc.PasswordLogin(context.Background(), testDomain, "a@acme.test", "pw", "", "https://cfg", "https://app")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if code == "" {
		t.Fatal("expected a code")
	}
}

func TestPasswordLogin_FailuresCollapse(t *testing.T) {
	u := passwordUser("user-1", "a@acme.test", "pw")
	u.TOTPSecret = strptr("secret")
	f := newFixture(t, u, user.User{ID: "user-2", Email: "nopw@acme.test"})

	cases := []struct {
		name            string
		email, password string
		totp            string
	}{
		{"unknown email", "ghost@acme.test", "pw", ""},
		{"no password set", "nopw@acme.test", "pw", ""},
		{"wrong password", "a@acme.test", "wrong", "123456"},
		{"missing totp", "a@acme.test", "pw", ""},
		{"wrong totp", "a@acme.test", "pw", "000000"},
	}
	for _, c := range cases {
		_, err := f.svc.PasswordLogin(context.Background(), testDomain, c.email, c.password, c.totp, "https://cfg", "https://app")
		if !errx.IsCode(err, auth.CodeInvalidCredentials) {
			t.Fatalf("%s: expected invalid-credentials, got %v", c.name, err)
		}
	}
}

func TestPasswordLogin_TOTPAccepted(t *testing.T) {
	u := passwordUser("user-1", "a@acme.test", "pw")
	u.TOTPSecret = strptr("secret")
	f := newFixture(t, u)

	if _, err := f.svc.PasswordLogin(context.Background(), testDomain, "a@acme.test", "pw", "123456", "https://cfg", "https://app"); err != nil {
		t.Fatalf("login with totp failed: %v", err)
	}
}

func TestPasswordLogin_RateLimited(t *testing.T) {
	f := newFixture(t, passwordUser("user-1", "a@acme.test", "pw"))
	f.limiter.deny = true

	_, err := f.svc.PasswordLogin(context.Background(), testDomain, "a@acme.test", "pw", "", "https://cfg", "https://app")
	if !errx.IsCode(err, ratelimit.CodeLimited) {
		t.Fatalf("expected rate-limited, got %v", err)
	}
}

// ----------------------------------------------------------------------------
// Social login
// ----------------------------------------------------------------------------

func TestSocialLogin_ProvisionsOnFirstSight(t *testing.T) {
	f := newFixture(t)
	f.social.identity = &auth.Identity{
		Provider: "acme-id", Subject: "sub-1",
		Email: "new@acme.test", EmailVerified: true, Name: "New User",
	}

	code, err := f.svc.SocialLogin(context.Background(), testDomain, "acme-id", "assertion", "https://cfg", "https://app")
	if err != nil {
		t.Fatalf("social login failed: %v", err)
	}
	if code == "" {
		t.Fatal("expected a code")
	}
	if len(f.users.saved) != 1 {
		t.Fatalf("expected one provisioned user, got %d", len(f.users.saved))
	}
	if !f.users.saved[0].EmailVerified {
		t.Fatal("provisioned user should have a verified email")
	}
}

func TestSocialLogin_ReusesExistingAccount(t *testing.T) {
	f := newFixture(t, passwordUser("user-1", "a@acme.test", "pw"))
	f.social.identity = &auth.Identity{
		Provider: "acme-id", Subject: "sub-1",
		Email: "a@acme.test", EmailVerified: true,
	}

	if _, err := f.svc.SocialLogin(context.Background(), testDomain, "acme-id", "assertion", "https://cfg", "https://app"); err != nil {
		t.Fatalf("social login failed: %v", err)
	}
	if len(f.users.saved) != 0 {
		t.Fatal("existing account must not be re-provisioned")
	}
}

func TestSocialLogin_RejectsUnverifiedEmail(t *testing.T) {
	f := newFixture(t)
	f.social.identity = &auth.Identity{
		Provider: "acme-id", Subject: "sub-1",
		Email: "new@acme.test", EmailVerified: false,
	}

	_, err := f.svc.SocialLogin(context.Background(), testDomain, "acme-id", "assertion", "https://cfg", "https://app")
	if !errx.IsCode(err, auth.CodeInvalidCredentials) {
		t.Fatalf("expected invalid-credentials, got %v", err)
	}
}

func TestSocialLogin_ProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.social.err = errors.New("upstream 502")

	_, err := f.svc.SocialLogin(context.Background(), testDomain, "acme-id", "assertion", "https://cfg", "https://app")
	if !errx.IsCode(err, auth.CodeProviderFailed) {
		t.Fatalf("expected provider-failed, got %v", err)
	}
}

// ----------------------------------------------------------------------------
// Code exchange
// ----------------------------------------------------------------------------

func TestExchangeCode_MintsToken(t *testing.T) {
	f := newFixture(t, passwordUser("user-1", "a@acme.test", "pw"))

	code, err := f.svc.PasswordLogin(context.Background(), testDomain, "a@acme.test", "pw", "", "https://cfg", "https://app")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	signed, err := f.svc.ExchangeCode(context.Background(), code, testDomain, "https://cfg", "client-1")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	claims, err := f.issuer.Verify(signed)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.UserID != "user-1" || claims.Domain != testDomain || claims.ClientID != "client-1" {
		t.Fatalf("claims wrong: %+v", claims)
	}
	// First exchange on a fresh domain elects the admin, who holds the
	// wildcard scope.
	if claims.Role != iam.DomainRoleAdmin {
		t.Fatalf("expected elected admin, got %q", claims.Role)
	}
	if len(claims.Scopes) != 1 || claims.Scopes[0] != "*" {
		t.Fatalf("expected wildcard scope, got %v", claims.Scopes)
	}
}

func TestExchangeCode_SingleUse(t *testing.T) {
	f := newFixture(t, passwordUser("user-1", "a@acme.test", "pw"))

	code, err := f.svc.PasswordLogin(context.Background(), testDomain, "a@acme.test", "pw", "", "https://cfg", "https://app")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := f.svc.ExchangeCode(context.Background(), code, testDomain, "https://cfg", "client-1"); err != nil {
		t.Fatalf("first exchange failed: %v", err)
	}
	if _, err := f.svc.ExchangeCode(context.Background(), code, testDomain, "https://cfg", "client-1"); !errx.IsCode(err, authcode.CodeInvalid) {
		t.Fatalf("second exchange should be invalid, got %v", err)
	}
}

func TestExchangeCode_OrgManagerScope(t *testing.T) {
	f := newFixture(t,
		passwordUser("user-1", "a@acme.test", "pw"),
		passwordUser("user-2", "b@acme.test", "pw"),
	)

	// user-1 takes the domain admin slot so user-2 lands on the plain role.
	code, err := f.svc.PasswordLogin(context.Background(), testDomain, "a@acme.test", "pw", "", "https://cfg", "https://app")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := f.svc.ExchangeCode(context.Background(), code, testDomain, "https://cfg", "client-1"); err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	f.orgRepo.member = &org.Member{OrgID: "org-1", UserID: "user-2", Domain: testDomain, Role: iam.OrgRoleOwner}

	code, err = f.svc.PasswordLogin(context.Background(), testDomain, "b@acme.test", "pw", "", "https://cfg", "https://app")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	signed, err := f.svc.ExchangeCode(context.Background(), code, testDomain, "https://cfg", "client-1")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	claims, err := f.issuer.Verify(signed)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Role != iam.DomainRoleUser {
		t.Fatalf("expected plain role, got %q", claims.Role)
	}
	if len(claims.Scopes) != 1 || claims.Scopes[0] != iam.ScopeGroupsManage {
		t.Fatalf("expected groups:manage scope for org owner, got %v", claims.Scopes)
	}
	if claims.Org == nil || claims.Org.OrgID != "org-1" {
		t.Fatalf("org block missing: %+v", claims.Org)
	}
}
