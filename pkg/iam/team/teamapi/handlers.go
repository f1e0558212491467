package teamapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/auth"
	"github.com/idforge/idforge/pkg/iam/team/teamsrv"
	"github.com/idforge/idforge/pkg/kernel"
)

// Handlers exposes team management over HTTP.
type Handlers struct {
	service *teamsrv.TeamService
}

func NewHandlers(service *teamsrv.TeamService) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the team routes under the organisation path.
func (h *Handlers) RegisterRoutes(app *fiber.App, mw *auth.TokenMiddleware) {
	teams := app.Group("/api/v1/orgs/:orgId/teams", mw.Authenticate())

	teams.Post("/", h.create)
	teams.Get("/", h.list)
	teams.Get("/:teamId", h.get)
	teams.Patch("/:teamId", h.update)
	teams.Delete("/:teamId", h.delete)

	teams.Get("/:teamId/members", h.listMembers)
	teams.Post("/:teamId/members", h.addMember)
	teams.Patch("/:teamId/members/:userId", h.changeMemberRole)
	teams.Delete("/:teamId/members/:userId", h.removeMember)
}

type createTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handlers) create(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req createTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	t, err := h.service.Create(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, req.Name, req.Description)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(t)
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

	t, err := h.service.Get(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, kernel.NewTeamID(c.Params("teamId")))
	if err != nil {
		return err
	}

	return c.JSON(t)
}

type updateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handlers) update(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req updateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	t, err := h.service.Update(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewTeamID(c.Params("teamId")), req.Name, req.Description)
	if err != nil {
		return err
	}

	return c.JSON(t)
}

func (h *Handlers) delete(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	err := h.service.Delete(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewTeamID(c.Params("teamId")))
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

	page, err := h.service.ListMembers(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, kernel.NewTeamID(c.Params("teamId")), c.Query("cursor"), c.QueryInt("limit"))
	if err != nil {
		return err
	}

	return c.JSON(page)
}

type addTeamMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (h *Handlers) addMember(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req addTeamMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	m, err := h.service.AddMember(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewTeamID(c.Params("teamId")), kernel.NewUserID(req.UserID), req.Role)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(m)
}

type changeTeamRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handlers) changeMemberRole(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	var req changeTeamRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}

	err := h.service.ChangeMemberRole(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewTeamID(c.Params("teamId")), kernel.NewUserID(c.Params("userId")), req.Role)
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

	err := h.service.RemoveMember(c.Context(), kernel.NewOrgID(c.Params("orgId")), ac.Domain, ac.UserID, kernel.NewTeamID(c.Params("teamId")), kernel.NewUserID(c.Params("userId")))
	if err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
