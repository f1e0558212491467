package iamcontainer

import (
	"github.com/idforge/idforge/pkg/config"
	"github.com/idforge/idforge/pkg/iam/auth"
	"github.com/idforge/idforge/pkg/iam/auth/authapi"
	"github.com/idforge/idforge/pkg/iam/auth/authinfra"
	"github.com/idforge/idforge/pkg/iam/auth/authsrv"
	"github.com/idforge/idforge/pkg/iam/authcode/authcodeinfra"
	"github.com/idforge/idforge/pkg/iam/authcode/authcodesrv"
	"github.com/idforge/idforge/pkg/iam/domaincfg"
	"github.com/idforge/idforge/pkg/iam/domainrole/domainroleinfra"
	"github.com/idforge/idforge/pkg/iam/domainrole/domainrolesrv"
	"github.com/idforge/idforge/pkg/iam/group/groupapi"
	"github.com/idforge/idforge/pkg/iam/group/groupinfra"
	"github.com/idforge/idforge/pkg/iam/group/groupsrv"
	"github.com/idforge/idforge/pkg/iam/org/orgapi"
	"github.com/idforge/idforge/pkg/iam/org/orginfra"
	"github.com/idforge/idforge/pkg/iam/org/orgsrv"
	"github.com/idforge/idforge/pkg/iam/orgctx"
	"github.com/idforge/idforge/pkg/iam/ratelimit/ratelimitinfra"
	"github.com/idforge/idforge/pkg/iam/team/teamapi"
	"github.com/idforge/idforge/pkg/iam/team/teaminfra"
	"github.com/idforge/idforge/pkg/iam/team/teamsrv"
	"github.com/idforge/idforge/pkg/iam/token"
	"github.com/idforge/idforge/pkg/iam/user/userinfra"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state; everything comes through here.
// ---------------------------------------------------------------------------

type Deps struct {
	DB     *sqlx.DB
	Redis  *redis.Client
	Cfg    *config.Config
	Logger *zap.Logger

	// Social and TOTP are external verifiers injected as interfaces so this
	// module has zero knowledge of provider-specific handshakes.
	Social auth.SocialVerifier
	TOTP   auth.TOTPVerifier
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// Only expose what cmd/ actually needs; repos and infra stay private.
// ---------------------------------------------------------------------------

type Container struct {
	// Services
	LoginService        *authsrv.LoginService
	OrganisationService *orgsrv.OrganisationService
	TeamService         *teamsrv.TeamService
	GroupService        *groupsrv.GroupService
	TokenIssuer         *token.Issuer

	// Handlers, needed by cmd/ to register routes
	AuthHandlers  *authapi.Handlers
	OrgHandlers   *orgapi.Handlers
	TeamHandlers  *teamapi.Handlers
	GroupHandlers *groupapi.Handlers

	// Middleware, needed by cmd/ to protect route groups
	AuthMiddleware *auth.TokenMiddleware
}

// New constructs the entire IAM dependency graph.
// Order matters: repos -> infra services -> domain services -> handlers ->
// middleware.
func New(deps Deps) *Container {
	log := deps.Logger
	log.Info("initializing IAM container")

	c := &Container{}

	// Repositories

	userRepo := userinfra.NewPostgresUserRepository(deps.DB)
	domainRoleRepo := domainroleinfra.NewPostgresDomainRoleRepository(deps.DB)
	authCodeRepo := authcodeinfra.NewPostgresAuthCodeRepository(deps.DB)
	orgRepo := orginfra.NewPostgresOrgRepository(deps.DB)
	teamRepo := teaminfra.NewPostgresTeamRepository(deps.DB)
	groupRepo := groupinfra.NewPostgresGroupRepository(deps.DB)

	// Infrastructure services

	limiter := ratelimitinfra.NewRedisLimiterFromConfig(deps.Redis, &deps.Cfg.RateLimit)
	hasher := authinfra.NewBcryptHasher(0)
	resolver := domaincfg.NewStaticResolver(&deps.Cfg.Tenant)

	c.TokenIssuer = token.NewIssuerFromConfig(&deps.Cfg.JWT)

	// Domain services

	codeService := authcodesrv.NewService(authCodeRepo, deps.Cfg.AuthCode.Pepper, deps.Cfg.AuthCode.TTL)
	roleService := domainrolesrv.NewService(domainRoleRepo)
	orgResolver := orgctx.NewResolver(orgRepo, teamRepo, groupRepo, resolver)

	c.OrganisationService = orgsrv.NewOrganisationService(orgRepo, userRepo, resolver, limiter)
	c.TeamService = teamsrv.NewTeamService(teamRepo, orgRepo, userRepo, resolver, limiter)
	c.GroupService = groupsrv.NewGroupService(groupRepo, teamRepo, orgRepo, resolver)

	c.LoginService = authsrv.NewLoginService(
		userRepo,
		hasher,
		deps.TOTP,
		deps.Social,
		codeService,
		roleService,
		orgResolver,
		c.TokenIssuer,
		limiter,
	)

	// Handlers

	c.AuthHandlers = authapi.NewHandlers(c.LoginService)
	c.OrgHandlers = orgapi.NewHandlers(c.OrganisationService)
	c.TeamHandlers = teamapi.NewHandlers(c.TeamService)
	c.GroupHandlers = groupapi.NewHandlers(c.GroupService)

	// Middleware

	c.AuthMiddleware = auth.NewTokenMiddleware(c.TokenIssuer)

	log.Info("IAM container initialized")
	return c
}
