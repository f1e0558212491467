package orgapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/auth"
	"github.com/idforge/idforge/pkg/iam/org/orgsrv"
	"github.com/idforge/idforge/pkg/kernel"
)

// Handlers exposes organisation management over HTTP.
type Handlers struct {
	service *orgsrv.OrganisationService
}

func NewHandlers(service *orgsrv.OrganisationService) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the organisation routes under /api/v1/orgs. All of
// them require an authenticated caller.
func (h *Handlers) RegisterRoutes(app *fiber.App, mw *auth.TokenMiddleware) {
	orgs := app.Group("/api/v1/orgs", mw.Authenticate())

	orgs.Post("/", h.create)
	orgs.Get("/", h.list)
	orgs.Get("/:orgId", h.get)
	orgs.Patch("/:orgId", h.update)
	orgs.Delete("/:orgId", h.delete)

	orgs.Get("/:orgId/members", h.listMembers)
	orgs.Post("/:orgId/members", h.addMember)
	orgs.Patch("/:orgId/members/:userId", h.changeMemberRole)
	orgs.Delete("/:orgId/members/:userId", h.removeMember)

	orgs.Post("/:orgId/transfer-ownership", h.transferOwnership)
}

type createOrgRequest struct {
	Name      string `json:"name"`
	OwnerRole string `json:"owner_role"`
}

func (h *Handlers) create(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req createOrgRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	o, err := h.service.Create(c.Context(), ac.Domain, req.Name, ac.UserID, req.OwnerRole)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(o)
}

func (h *Handlers) list(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	page, err := h.service.List(c.Context(), ac.Domain, c.Query("cursor"), c.QueryInt("limit"))
	if err != nil {
		return err
	}

	return c.JSON(page)
}

func (h *Handlers) get(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	o, err := h.service.Get(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain)
	if err != nil {
		return err
	}

	return c.JSON(o)
}

type updateOrgRequest struct {
	Name string `json:"name"`
}

func (h *Handlers) update(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req updateOrgRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	o, err := h.service.Update(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, req.Name)
	if err != nil {
		return err
	}

	return c.JSON(o)
}

func (h *Handlers) delete(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	if err := h.service.Delete(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) listMembers(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	page, err := h.service.ListMembers(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, c.Query("cursor"), c.QueryInt("limit"))
	if err != nil {
		return err
	}

	return c.JSON(page)
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (h *Handlers) addMember(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	m, err := h.service.AddMember(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewUserID(req.UserID), req.Role)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(m)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handlers) changeMemberRole(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req changeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	err := h.service.ChangeMemberRole(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewUserID(c.Params("userId")), req.Role)
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) removeMember(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	err := h.service.RemoveMember(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewUserID(c.Params("userId")))
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type transferOwnershipRequest struct {
	NewOwnerID string `json:"new_owner_id"`
}

func (h *Handlers) transferOwnership(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req transferOwnershipRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	err := h.service.TransferOwnership(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewUserID(req.NewOwnerID))
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
