package orgsrv_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/domaincfg"
	"github.com/idforge/idforge/pkg/iam/org"
	"github.com/idforge/idforge/pkg/iam/org/orgsrv"
	"github.com/idforge/idforge/pkg/iam/ratelimit"
	"github.com/idforge/idforge/pkg/iam/user"
	"github.com/idforge/idforge/pkg/kernel"
)

// ----------------------------------------------------------------------------
// Fakes
// ----------------------------------------------------------------------------

// fakeOrgRepo reproduces the repository's transactional guarantees under a
// mutex, so concurrent service calls see the same serialization the database
// provides.
type fakeOrgRepo struct {
	mu      sync.Mutex
	orgs    map[kernel.OrgID]*org.Organisation
	members map[kernel.OrgID]map[kernel.UserID]*org.Member

	slugConflicts int // forces this many slug-taken errors before accepting
	cascades      []kernel.UserID
	deletes       []kernel.OrgID
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{
		orgs:    make(map[kernel.OrgID]*org.Organisation),
		members: make(map[kernel.OrgID]map[kernel.UserID]*org.Member),
	}
}

func (f *fakeOrgRepo) slugTaken(domain kernel.Domain, slug string, self kernel.OrgID) bool {
	for id, o := range f.orgs {
		if id != self && o.Domain == domain && o.Slug == slug {
			return true
		}
	}
	return false
}

func (f *fakeOrgRepo) CreateWithOwner(_ context.Context, o org.Organisation, owner org.Member, _ kernel.TeamID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slugConflicts > 0 {
		f.slugConflicts--
		return org.ErrSlugTaken()
	}
	if f.slugTaken(o.Domain, o.Slug, o.ID) {
		return org.ErrSlugTaken()
	}
	for _, ms := range f.members {
		if m, ok := ms[owner.UserID]; ok && m.Domain == o.Domain {
			return org.ErrAlreadyMember()
		}
	}
	stored := o
	f.orgs[o.ID] = &stored
	ownerRow := owner
	f.members[o.ID] = map[kernel.UserID]*org.Member{owner.UserID: &ownerRow}
	return nil
}

func (f *fakeOrgRepo) FindByID(_ context.Context, id kernel.OrgID, domain kernel.Domain) (*org.Organisation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orgs[id]
	if !ok || o.Domain != domain {
		return nil, org.ErrNotFound()
	}
	copied := *o
	return &copied, nil
}

func (f *fakeOrgRepo) List(_ context.Context, domain kernel.Domain, afterID string, limit int) ([]org.Organisation, error) {
	var out []org.Organisation
	for _, o := range f.orgs {
		if o.Domain == domain && o.ID.String() > afterID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOrgRepo) UpdateName(_ context.Context, id kernel.OrgID, domain kernel.Domain, name, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slugConflicts > 0 {
		f.slugConflicts--
		return org.ErrSlugTaken()
	}
	o, ok := f.orgs[id]
	if !ok || o.Domain != domain {
		return org.ErrNotFound()
	}
	if f.slugTaken(domain, slug, id) {
		return org.ErrSlugTaken()
	}
	o.Name, o.Slug = name, slug
	return nil
}

func (f *fakeOrgRepo) DeleteCascade(_ context.Context, id kernel.OrgID, domain kernel.Domain) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orgs[id]
	if !ok || o.Domain != domain {
		return org.ErrNotFound()
	}
	delete(f.orgs, id)
	delete(f.members, id)
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeOrgRepo) FindMember(_ context.Context, orgID kernel.OrgID, userID kernel.UserID) (*org.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.members[orgID][userID]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, org.ErrMemberNotFound()
}

func (f *fakeOrgRepo) FindMemberByDomain(_ context.Context, domain kernel.Domain, userID kernel.UserID) (*org.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ms := range f.members {
		if m, ok := ms[userID]; ok && m.Domain == domain {
			copied := *m
			return &copied, nil
		}
	}
	return nil, org.ErrMemberNotFound()
}

func (f *fakeOrgRepo) ListMembers(_ context.Context, orgID kernel.OrgID, afterID string, limit int) ([]org.Member, error) {
	var out []org.Member
	for _, m := range f.members[orgID] {
		if m.UserID.String() > afterID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOrgRepo) CountMembers(_ context.Context, orgID kernel.OrgID) (int, error) {
	return len(f.members[orgID]), nil
}

func (f *fakeOrgRepo) CountOwners(_ context.Context, orgID kernel.OrgID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, m := range f.members[orgID] {
		if m.Role == iam.OrgRoleOwner {
			count++
		}
	}
	return count, nil
}

func (f *fakeOrgRepo) AddMember(_ context.Context, m org.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ms := range f.members {
		if existing, ok := ms[m.UserID]; ok && existing.Domain == m.Domain {
			return org.ErrAlreadyMember()
		}
	}
	if f.members[m.OrgID] == nil {
		f.members[m.OrgID] = make(map[kernel.UserID]*org.Member)
	}
	stored := m
	f.members[m.OrgID][m.UserID] = &stored
	return nil
}

func (f *fakeOrgRepo) UpdateMemberRole(_ context.Context, orgID kernel.OrgID, userID kernel.UserID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[orgID][userID]
	if !ok {
		return org.ErrMemberNotFound()
	}
	m.Role = role
	return nil
}

func (f *fakeOrgRepo) RemoveMemberCascade(_ context.Context, orgID kernel.OrgID, userID kernel.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[orgID][userID]
	if !ok {
		return org.ErrMemberNotFound()
	}
	if m.Role == iam.OrgRoleOwner {
		owners := 0
		for _, other := range f.members[orgID] {
			if other.Role == iam.OrgRoleOwner {
				owners++
			}
		}
		if owners <= 1 {
			return org.ErrLastOwner()
		}
	}
	delete(f.members[orgID], userID)
	f.cascades = append(f.cascades, userID)
	return nil
}

func (f *fakeOrgRepo) TransferOwnership(_ context.Context, orgID kernel.OrgID, domain kernel.Domain, from, to kernel.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orgs[orgID]
	if !ok || o.Domain != domain || o.OwnerID != from {
		return org.ErrNotFound()
	}
	o.OwnerID = to
	f.members[orgID][to].Role = iam.OrgRoleOwner
	f.members[orgID][from].Role = iam.OrgRoleAdmin
	return nil
}

type fakeUserRepo struct {
	users map[kernel.UserID]bool
}

func (f *fakeUserRepo) FindByID(context.Context, kernel.UserID) (*user.User, error) {
	return nil, user.ErrUserNotFound()
}

func (f *fakeUserRepo) FindByEmail(context.Context, string) (*user.User, error) {
	return nil, user.ErrUserNotFound()
}

func (f *fakeUserRepo) Save(_ context.Context, u user.User) error {
	f.users[u.ID] = true
	return nil
}

func (f *fakeUserRepo) Exists(_ context.Context, id kernel.UserID) (bool, error) {
	return f.users[id], nil
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

func (l *fakeLimiter) Allow(context.Context, string) (bool, error) {
	return !l.deny, nil
}

// ----------------------------------------------------------------------------
// Harness
// ----------------------------------------------------------------------------

type fixture struct {
	svc     *orgsrv.OrganisationService
	repo    *fakeOrgRepo
	users   *fakeUserRepo
	limiter *fakeLimiter
	cfg     *staticResolver
}

func newFixture(userIDs ...kernel.UserID) *fixture {
	repo := newFakeOrgRepo()
	users := &fakeUserRepo{users: make(map[kernel.UserID]bool)}
	for _, id := range userIDs {
		users.users[id] = true
	}
	limiter := &fakeLimiter{}
	cfg := &staticResolver{settings: domaincfg.Settings{
		MultiTenantEnabled: true,
		GroupsEnabled:      true,
		AllowedOrgRoles:    []string{"admin", "member"},
		Limits: domaincfg.Limits{
			MaxOrgMembers: 5, MaxTeams: 5, MaxTeamMembers: 5,
			MaxGroups: 5, MaxGroupMembers: 5, MaxTeamsPerUser: 5,
		},
	}}
	return &fixture{
		svc:     orgsrv.NewOrganisationService(repo, users, cfg, limiter),
		repo:    repo,
		users:   users,
		limiter: limiter,
		cfg:     cfg,
	}
}

// ----------------------------------------------------------------------------
// Create
// ----------------------------------------------------------------------------

func TestCreate_ProvisionsOrgWithOwner(t *testing.T) {
	f := newFixture("owner-1")

	o, err := f.svc.Create(context.Background(), "acme.test", "Acme Corp", "owner-1", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if o.Slug != "acme-corp" {
		t.Fatalf("unexpected slug %q", o.Slug)
	}
	if o.OwnerID != "owner-1" {
		t.Fatalf("unexpected owner %s", o.OwnerID)
	}

	m, err := f.repo.FindMember(context.Background(), o.ID, "owner-1")
	if err != nil {
		t.Fatalf("owner membership missing: %v", err)
	}
	if m.Role != iam.OrgRoleOwner {
		t.Fatalf("owner holds role %q", m.Role)
	}
}

func TestCreate_RejectsNonOwnerRole(t *testing.T) {
	f := newFixture("owner-1")

	_, err := f.svc.Create(context.Background(), "acme.test", "Acme Corp", "owner-1", "admin")
	if !errx.IsCode(err, org.CodeRoleNotAllowed) {
		t.Fatalf("expected role-not-allowed, got %v", err)
	}
}

func TestCreate_RejectsUnknownOwner(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), "acme.test", "Acme Corp", "ghost", "")
	if !errx.IsCode(err, user.CodeUserNotFound) {
		t.Fatalf("expected user-not-found, got %v", err)
	}
}

func TestCreate_RejectsSecondOrgOnDomain(t *testing.T) {
	f := newFixture("owner-1")

	if _, err := f.svc.Create(context.Background(), "acme.test", "Acme Corp", "owner-1", ""); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := f.svc.Create(context.Background(), "acme.test", "Other Corp", "owner-1", "")
	if !errx.IsCode(err, org.CodeAlreadyMember) {
		t.Fatalf("expected already-member, got %v", err)
	}
}

func TestCreate_AllowsSameUserOnOtherDomain(t *testing.T) {
	f := newFixture("owner-1")

	if _, err := f.svc.Create(context.Background(), "acme.test", "Acme Corp", "owner-1", ""); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), "beta.test", "Acme Corp", "owner-1", ""); err != nil {
		t.Fatalf("cross-domain create failed: %v", err)
	}
}

func TestCreate_RetriesSlugCollisions(t *testing.T) {
	f := newFixture("owner-1")
	f.repo.slugConflicts = 2

	o, err := f.svc.Create(context.Background(), "acme.test", "Acme Corp", "owner-1", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.HasPrefix(o.Slug, "acme-corp-") {
		t.Fatalf("expected suffixed slug after collisions, got %q", o.Slug)
	}
}

func TestCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture("owner-1")
	f.repo.slugConflicts = 100

	_, err := f.svc.Create(context.Background(), "acme.test", "Acme Corp", "owner-1", "")
	if !errx.IsCode(err, org.CodeSlugExhausted) {
		t.Fatalf("expected slug-exhausted, got %v", err)
	}
}

func TestCreate_RateLimited(t *testing.T) {
	f := newFixture("owner-1")
	f.limiter.deny = true

	_, err := f.svc.Create(context.Background(), "acme.test", "Acme Corp", "owner-1", "")
	if !errx.IsCode(err, ratelimit.CodeLimited) {
		t.Fatalf("expected rate-limited, got %v", err)
	}
}

func TestCreate_FeatureDisabled(t *testing.T) {
	f := newFixture("owner-1")
	f.cfg.settings.MultiTenantEnabled = false

	_, err := f.svc.Create(context.Background(), "acme.test", "Acme Corp", "owner-1", "")
	if !errx.IsCode(err, org.CodeFeatureDisabled) {
		t.Fatalf("expected feature-disabled, got %v", err)
	}
}

// ----------------------------------------------------------------------------
// Membership
// ----------------------------------------------------------------------------

func TestAddMember_EnforcesRoleAllowList(t *testing.T) {
	f := newFixture("owner-1", "user-2")
	o := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")

	_, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "user-2", "superuser")
	if !errx.IsCode(err, org.CodeRoleNotAllowed) {
		t.Fatalf("expected role-not-allowed, got %v", err)
	}
	if _, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "user-2", "member"); err != nil {
		t.Fatalf("allow-listed role rejected: %v", err)
	}
}

func TestAddMember_RequiresManagerCaller(t *testing.T) {
	f := newFixture("owner-1", "user-2", "user-3")
	o := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")

	if _, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "user-2", "member"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	_, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "user-2", "user-3", "member")
	if !errx.IsCode(err, org.CodeForbidden) {
		t.Fatalf("expected forbidden for plain member, got %v", err)
	}
}

func TestAddMember_EnforcesCapacity(t *testing.T) {
	f := newFixture("owner-1", "u2", "u3", "u4", "u5", "u6")
	f.cfg.settings.Limits.MaxOrgMembers = 2
	o := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")

	if _, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "u2", "member"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	_, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "u3", "member")
	if !errx.IsCode(err, org.CodeMemberLimit) {
		t.Fatalf("expected member-limit, got %v", err)
	}
}

func TestAddMember_RejectsCrossOrgMembership(t *testing.T) {
	f := newFixture("owner-1", "owner-2", "user-3")
	a := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")
	b := mustCreate(t, f, "acme.test", "Beta Corp", "owner-2")

	if _, err := f.svc.AddMember(context.Background(), a.ID, "acme.test", "owner-1", "user-3", "member"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	_, err := f.svc.AddMember(context.Background(), b.ID, "acme.test", "owner-2", "user-3", "member")
	if !errx.IsCode(err, org.CodeAlreadyMember) {
		t.Fatalf("expected already-member across organisations, got %v", err)
	}
}

func TestRemoveMember_CascadesAndProtectsLastOwner(t *testing.T) {
	f := newFixture("owner-1", "user-2")
	o := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")

	if _, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "user-2", "member"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	err := f.svc.RemoveMember(context.Background(), o.ID, "acme.test", "owner-1", "owner-1")
	if !errx.IsCode(err, org.CodeLastOwner) {
		t.Fatalf("expected last-owner protection, got %v", err)
	}

	if err := f.svc.RemoveMember(context.Background(), o.ID, "acme.test", "owner-1", "user-2"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(f.repo.cascades) != 1 || f.repo.cascades[0] != "user-2" {
		t.Fatalf("expected cascading removal of user-2, got %v", f.repo.cascades)
	}
}

func TestRemoveMember_ConcurrentOwnerRemovalsKeepOneOwner(t *testing.T) {
	f := newFixture("owner-1", "owner-2", "admin-3")
	o := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")

	if _, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "owner-2", "member"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := f.svc.ChangeMemberRole(context.Background(), o.ID, "acme.test", "owner-1", "owner-2", iam.OrgRoleOwner); err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if _, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "admin-3", "admin"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// An admin removes both owners at the same time. Exactly one removal may
	// win; the other must hit the owner floor inside the cascade.
	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		errs[0] = f.svc.RemoveMember(context.Background(), o.ID, "acme.test", "admin-3", "owner-1")
	}()
	go func() {
		defer wg.Done()
		<-start
		errs[1] = f.svc.RemoveMember(context.Background(), o.ID, "acme.test", "admin-3", "owner-2")
	}()
	close(start)
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errx.IsCode(err, org.CodeLastOwner) {
			t.Fatalf("unexpected error: %v", err)
		}
		failures++
	}
	if failures == 0 {
		t.Fatal("both owner removals succeeded")
	}

	owners, err := f.repo.CountOwners(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if owners < 1 {
		t.Fatalf("organisation left with %d owners", owners)
	}
}

func TestChangeMemberRole_OwnerOnly(t *testing.T) {
	f := newFixture("owner-1", "user-2", "user-3")
	o := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")

	if _, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "user-2", "admin"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "user-3", "member"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	err := f.svc.ChangeMemberRole(context.Background(), o.ID, "acme.test", "user-2", "user-3", "admin")
	if !errx.IsCode(err, org.CodeForbidden) {
		t.Fatalf("admins must not change roles, got %v", err)
	}
	if err := f.svc.ChangeMemberRole(context.Background(), o.ID, "acme.test", "owner-1", "user-3", "admin"); err != nil {
		t.Fatalf("owner role change failed: %v", err)
	}
}

func TestChangeMemberRole_CannotDemoteOwner(t *testing.T) {
	f := newFixture("owner-1")
	o := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")

	err := f.svc.ChangeMemberRole(context.Background(), o.ID, "acme.test", "owner-1", "owner-1", "member")
	if !errx.IsCode(err, org.CodeLastOwner) {
		t.Fatalf("expected demotion guard, got %v", err)
	}
}

// ----------------------------------------------------------------------------
// Ownership & deletion
// ----------------------------------------------------------------------------

func TestTransferOwnership(t *testing.T) {
	f := newFixture("owner-1", "user-2")
	o := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")

	if _, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "user-2", "member"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := f.svc.TransferOwnership(context.Background(), o.ID, "acme.test", "owner-1", "user-2"); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	got, err := f.repo.FindByID(context.Background(), o.ID, "acme.test")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.OwnerID != "user-2" {
		t.Fatalf("owner not repointed: %s", got.OwnerID)
	}
	old, _ := f.repo.FindMember(context.Background(), o.ID, "owner-1")
	if old.Role != iam.OrgRoleAdmin {
		t.Fatalf("previous owner should be admin, holds %q", old.Role)
	}
}

func TestTransferOwnership_CallerMustBeOwner(t *testing.T) {
	f := newFixture("owner-1", "user-2")
	o := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")

	if _, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "user-2", "admin"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	err := f.svc.TransferOwnership(context.Background(), o.ID, "acme.test", "user-2", "user-2")
	if !errx.IsCode(err, org.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDelete_OwnerOnly(t *testing.T) {
	f := newFixture("owner-1", "user-2")
	o := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")

	if _, err := f.svc.AddMember(context.Background(), o.ID, "acme.test", "owner-1", "user-2", "admin"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	err := f.svc.Delete(context.Background(), o.ID, "acme.test", "user-2")
	if !errx.IsCode(err, org.CodeForbidden) {
		t.Fatalf("expected forbidden for admin, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), o.ID, "acme.test", "owner-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(f.repo.deletes) != 1 {
		t.Fatal("cascade delete not recorded")
	}
}

func TestGet_ScopedToDomain(t *testing.T) {
	f := newFixture("owner-1")
	o := mustCreate(t, f, "acme.test", "Acme Corp", "owner-1")

	if _, err := f.svc.Get(context.Background(), o.ID, "other.test"); !errx.IsCode(err, org.CodeNotFound) {
		t.Fatalf("expected cross-domain not-found, got %v", err)
	}
}

func mustCreate(t *testing.T, f *fixture, domain kernel.Domain, name string, owner kernel.UserID) *org.Organisation {
	t.Helper()
	o, err := f.svc.Create(context.Background(), domain, name, owner, "")
	if err != nil {
		t.Fatalf("create %q failed: %v", name, err)
	}
	return o
}
