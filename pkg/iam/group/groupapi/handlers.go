package groupapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/auth"
	"github.com/idforge/idforge/pkg/iam/group/groupsrv"
	"github.com/idforge/idforge/pkg/kernel"
)

// Handlers exposes group management over HTTP. Reads are open to any
// authenticated caller; mutations sit behind the groups:manage scope.
type Handlers struct {
	service *groupsrv.GroupService
}

func NewHandlers(service *groupsrv.GroupService) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the group routes under the organisation path.
func (h *Handlers) RegisterRoutes(app *fiber.App, mw *auth.TokenMiddleware) {
	groups := app.Group("/api/v1/orgs/:orgId/groups", mw.Authenticate())
	manage := mw.RequireScope(iam.ScopeGroupsManage)

	groups.Get("/", h.list)
	groups.Get("/:groupId", h.get)
	groups.Get("/:groupId/members", h.listMembers)

	groups.Post("/", manage, h.create)
	groups.Patch("/:groupId", manage, h.update)
	groups.Delete("/:groupId", manage, h.delete)
	groups.Post("/:groupId/members", manage, h.addMember)
	groups.Patch("/:groupId/members/:userId", manage, h.setAdmin)
	groups.Delete("/:groupId/members/:userId", manage, h.removeMember)

	teams := app.Group("/api/v1/orgs/:orgId/teams/:teamId", mw.Authenticate())
	teams.Put("/group", manage, h.assignTeam)
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handlers) create(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	g, err := h.service.Create(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, req.Name, req.Description)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(g)
}

func (h *Handlers) list(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	page, err := h.service.List(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, c.Query("cursor"), c.QueryInt("limit"))
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

	g, err := h.service.Get(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, kernel.NewGroupID(c.Params("groupId")))
	if err != nil {
		return err
	}

	return c.JSON(g)
}

type updateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handlers) update(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req updateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	g, err := h.service.Update(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewGroupID(c.Params("groupId")), req.Name, req.Description)
	if err != nil {
		return err
	}

	return c.JSON(g)
}

func (h *Handlers) delete(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	err := h.service.Delete(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewGroupID(c.Params("groupId")))
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type assignTeamRequest struct {
	GroupID *string `json:"group_id"`
}

func (h *Handlers) assignTeam(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req assignTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	var groupID *kernel.GroupID
	if req.GroupID != nil && *req.GroupID != "" {
		gid := kernel.NewGroupID(*req.GroupID)
		groupID = &gid
	}

	err := h.service.AssignTeam(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewTeamID(c.Params("teamId")), groupID)
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) listMembers(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	page, err := h.service.ListMembers(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, kernel.NewGroupID(c.Params("groupId")), c.Query("cursor"), c.QueryInt("limit"))
	if err != nil {
		return err
	}

	return c.JSON(page)
}

type addGroupMemberRequest struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
}

func (h *Handlers) addMember(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req addGroupMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	m, err := h.service.AddMember(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewGroupID(c.Params("groupId")), kernel.NewUserID(req.UserID), req.IsAdmin)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(m)
}

type setAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

func (h *Handlers) setAdmin(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req setAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	err := h.service.SetAdmin(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewGroupID(c.Params("groupId")), kernel.NewUserID(c.Params("userId")), req.IsAdmin)
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

	err := h.service.RemoveMember(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewGroupID(c.Params("groupId")), kernel.NewUserID(c.Params("userId")))
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
