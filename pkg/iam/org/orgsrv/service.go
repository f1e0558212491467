package orgsrv

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/domaincfg"
	"github.com/idforge/idforge/pkg/iam/org"
	"github.com/idforge/idforge/pkg/iam/ratelimit"
	"github.com/idforge/idforge/pkg/iam/user"
	"github.com/idforge/idforge/pkg/kernel"
)

// Unique-slug retries under a colliding name. Suffixes are random, so ten
// attempts exhausting means something is wrong beyond bad luck.
const maxSlugAttempts = 10

// OrganisationService owns the tenant lifecycle: creation with the default
// team, membership, ownership transfer and cascading deletion.
type OrganisationService struct {
	orgRepo  org.Repository
	userRepo user.Repository
	cfg      domaincfg.Resolver
	limiter  ratelimit.Limiter
}

func NewOrganisationService(
	orgRepo org.Repository,
	userRepo user.Repository,
	cfg domaincfg.Resolver,
	limiter ratelimit.Limiter,
) *OrganisationService {
	return &OrganisationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
		cfg:      cfg,
		limiter:  limiter,
	}
}

// Create provisions an organisation on a domain: the organisation row, the
// owner's membership, the default team and the owner's enrollment in it, all
// in one transaction. ownerRole may be empty; the creating member always
// holds the reserved owner role, since an organisation cannot exist without
// one.
func (s *OrganisationService) Create(ctx context.Context, domain kernel.Domain, name string, ownerUserID kernel.UserID, ownerRole string) (*org.Organisation, error) {
	settings, err := s.resolveSettings(ctx, domain)
	if err != nil {
		return nil, err
	}

	if err := s.checkRate(ctx, "org:create:"+domain.String()); err != nil {
		return nil, err
	}

	if ownerRole != "" && ownerRole != iam.OrgRoleOwner {
		return nil, org.ErrRoleNotAllowed().WithDetail("reason", "the creating member must hold the owner role")
	}
	if !settings.AllowsRole(iam.OrgRoleOwner) {
		return nil, org.ErrRoleNotAllowed()
	}

	exists, err := s.userRepo.Exists(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, user.ErrUserNotFound().WithDetail("user_id", ownerUserID.String())
	}

	// Cross-organisation check: one membership per user per domain, across
	// every organisation on the domain. The unique constraint backs this up
	// under races.
	if _, err := s.orgRepo.FindMemberByDomain(ctx, domain, ownerUserID); err == nil {
		return nil, org.ErrAlreadyMember()
	} else if !errx.IsCode(err, org.CodeMemberNotFound) {
		return nil, err
	}

	base, err := org.Slugify(name)
	if err != nil {
		return nil, err
	}
	slug := base

	now := time.Now().UTC()
	o := org.Organisation{
		ID:        kernel.NewOrgID(uuid.NewString()),
		Domain:    domain,
		Name:      name,
		OwnerID:   ownerUserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := org.Member{
		OrgID:     o.ID,
		UserID:    ownerUserID,
		Domain:    domain,
		Role:      iam.OrgRoleOwner,
		CreatedAt: now,
	}
	defaultTeamID := kernel.NewTeamID(uuid.NewString())

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		o.Slug = slug
		err = s.orgRepo.CreateWithOwner(ctx, o, owner, defaultTeamID)
		if err == nil {
			return &o, nil
		}
		if !errx.IsCode(err, org.CodeSlugTaken) {
			return nil, err
		}
		if slug, err = org.WithSuffix(base); err != nil {
			return nil, err
		}
	}

	return nil, org.ErrSlugExhausted().WithDetail("attempts", maxSlugAttempts)
}

// Get returns an organisation scoped to its domain.
func (s *OrganisationService) Get(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain) (*org.Organisation, error) {
	return s.orgRepo.FindByID(ctx, orgID, domain)
}

// List pages through the domain's organisations.
func (s *OrganisationService) List(ctx context.Context, domain kernel.Domain, cursor string, limit int) (kernel.Page[org.Organisation], error) {
	limit = kernel.ClampPageSize(limit)
	items, err := s.orgRepo.List(ctx, domain, kernel.DecodeCursor(cursor), limit)
	if err != nil {
		return kernel.Page[org.Organisation]{}, err
	}
	return kernel.NewPage(items, limit, func(o org.Organisation) string { return o.ID.String() }), nil
}

// Update renames the organisation. The slug is re-derived from the new name,
// with the same collision retry as creation.
func (s *OrganisationService) Update(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, newName string) (*org.Organisation, error) {
	o, err := s.orgRepo.FindByID(ctx, orgID, domain)
	if err != nil {
		return nil, err
	}

	base, err := org.Slugify(newName)
	if err != nil {
		return nil, err
	}
	slug := base

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		err = s.orgRepo.UpdateName(ctx, orgID, domain, newName, slug)
		if err == nil {
			o.Name = newName
			o.Slug = slug
			return o, nil
		}
		if !errx.IsCode(err, org.CodeSlugTaken) {
			return nil, err
		}
		if slug, err = org.WithSuffix(base); err != nil {
			return nil, err
		}
	}

	return nil, org.ErrSlugExhausted().WithDetail("attempts", maxSlugAttempts)
}

// Delete removes the organisation with every membership, team and group it
// owns. Owner-only.
func (s *OrganisationService) Delete(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID kernel.UserID) error {
	o, err := s.orgRepo.FindByID(ctx, orgID, domain)
	if err != nil {
		return err
	}
	if o.OwnerID != callerUserID {
		return org.ErrForbidden()
	}

	return s.orgRepo.DeleteCascade(ctx, orgID, domain)
}

// AddMember adds a user to the organisation and enrolls them in the default
// team. Caller must hold owner or admin.
func (s *OrganisationService) AddMember(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID, targetUserID kernel.UserID, role string) (*org.Member, error) {
	settings, err := s.resolveSettings(ctx, domain)
	if err != nil {
		return nil, err
	}

	if err := s.checkRate(ctx, "org:add-member:"+orgID.String()); err != nil {
		return nil, err
	}

	o, err := s.orgRepo.FindByID(ctx, orgID, domain)
	if err != nil {
		return nil, err
	}

	caller, err := s.orgRepo.FindMember(ctx, orgID, callerUserID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageMembers() {
		return nil, org.ErrForbidden()
	}

	if !settings.AllowsRole(role) {
		return nil, org.ErrRoleNotAllowed().WithDetail("role", role)
	}

	exists, err := s.userRepo.Exists(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, user.ErrUserNotFound().WithDetail("user_id", targetUserID.String())
	}

	count, err := s.orgRepo.CountMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if count >= settings.Limits.MaxOrgMembers {
		return nil, org.ErrMemberLimit().WithDetail("limit", settings.Limits.MaxOrgMembers)
	}

	m := org.Member{
		OrgID:     o.ID,
		UserID:    targetUserID,
		Domain:    domain,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.orgRepo.AddMember(ctx, m); err != nil {
		return nil, err
	}

	return &m, nil
}

// ListMembers pages through the organisation's members.
func (s *OrganisationService) ListMembers(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, cursor string, limit int) (kernel.Page[org.Member], error) {
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return kernel.Page[org.Member]{}, err
	}

	limit = kernel.ClampPageSize(limit)
	items, err := s.orgRepo.ListMembers(ctx, orgID, kernel.DecodeCursor(cursor), limit)
	if err != nil {
		return kernel.Page[org.Member]{}, err
	}
	return kernel.NewPage(items, limit, func(m org.Member) string { return m.UserID.String() }), nil
}

// ChangeMemberRole updates a member's role. Owner-only. The recorded owner
// cannot be demoted here; ownership transfer is the separate path for that.
func (s *OrganisationService) ChangeMemberRole(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID, targetUserID kernel.UserID, role string) error {
	settings, err := s.resolveSettings(ctx, domain)
	if err != nil {
		return err
	}

	o, err := s.orgRepo.FindByID(ctx, orgID, domain)
	if err != nil {
		return err
	}

	caller, err := s.orgRepo.FindMember(ctx, orgID, callerUserID)
	if err != nil {
		return err
	}
	if caller.Role != iam.OrgRoleOwner {
		return org.ErrForbidden()
	}

	if !settings.AllowsRole(role) {
		return org.ErrRoleNotAllowed().WithDetail("role", role)
	}

	if targetUserID == o.OwnerID && role != iam.OrgRoleOwner {
		return org.ErrLastOwner().WithDetail("reason", "transfer ownership before demoting the owner")
	}

	if _, err := s.orgRepo.FindMember(ctx, orgID, targetUserID); err != nil {
		return err
	}

	return s.orgRepo.UpdateMemberRole(ctx, orgID, targetUserID, role)
}

// RemoveMember removes a member and cascades their team and group
// memberships within the organisation. Caller must hold owner or admin. The
// owner-floor check lives inside the cascade transaction, so concurrent
// removals of distinct owners cannot both pass it.
func (s *OrganisationService) RemoveMember(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID, targetUserID kernel.UserID) error {
	if _, err := s.orgRepo.FindByID(ctx, orgID, domain); err != nil {
		return err
	}

	caller, err := s.orgRepo.FindMember(ctx, orgID, callerUserID)
	if err != nil {
		return err
	}
	if !caller.CanManageMembers() {
		return org.ErrForbidden()
	}

	return s.orgRepo.RemoveMemberCascade(ctx, orgID, targetUserID)
}

// TransferOwnership hands the organisation to an existing member. The owner
// repointing, the promotion and the previous owner's demotion to admin all
// land in one transaction.
func (s *OrganisationService) TransferOwnership(ctx context.Context, orgID kernel.OrgID, domain kernel.Domain, callerUserID, newOwnerUserID kernel.UserID) error {
	o, err := s.orgRepo.FindByID(ctx, orgID, domain)
	if err != nil {
		return err
	}
	if o.OwnerID != callerUserID {
		return org.ErrForbidden()
	}

	if _, err := s.orgRepo.FindMember(ctx, orgID, newOwnerUserID); err != nil {
		return err
	}

	return s.orgRepo.TransferOwnership(ctx, orgID, domain, callerUserID, newOwnerUserID)
}

func (s *OrganisationService) resolveSettings(ctx context.Context, domain kernel.Domain) (*domaincfg.Settings, error) {
	settings, err := s.cfg.Resolve(ctx, domain)
	if err != nil {
		return nil, domaincfg.ErrResolveFailed(err)
	}
	if !settings.MultiTenantEnabled {
		return nil, org.ErrFeatureDisabled().WithDetail("domain", domain.String())
	}
	return settings, nil
}

func (s *OrganisationService) checkRate(ctx context.Context, key string) error {
	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		return errx.Wrap(err, "rate limiter failed", errx.TypeExternal)
	}
	if !allowed {
		return ratelimit.ErrLimited()
	}
	return nil
}
