package authapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/idforge/idforge/pkg/errx"
	"github.com/idforge/idforge/pkg/iam"
	"github.com/idforge/idforge/pkg/iam/auth"
	"github.com/idforge/idforge/pkg/iam/auth/authsrv"
	"github.com/idforge/idforge/pkg/kernel"
)

// Handlers exposes the login protocol over HTTP. The login and exchange
// endpoints are unauthenticated; /auth/me requires a valid token.
type Handlers struct {
	service *authsrv.LoginService
}

func NewHandlers(service *authsrv.LoginService) *Handlers {
	return &Handlers{service: service}
}

func (h *Handlers) RegisterRoutes(app *fiber.App, mw *auth.TokenMiddleware) {
	app.Post("/auth/login", h.passwordLogin)
	app.Post("/auth/social", h.socialLogin)
	app.Post("/auth/exchange", h.exchangeCode)
	app.Get("/auth/me", mw.Authenticate(), h.me)
}

type passwordLoginRequest struct {
	Domain      string `json:"domain"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	TOTPCode    string `json:"totp_code"`
	ConfigURL   string `json:"config_url"`
	RedirectURL string `json:"redirect_url"`
}

func (h *Handlers) passwordLogin(c *fiber.Ctx) error {
	var req passwordLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}
	if req.Domain == "" || req.Email == "" || req.Password == "" {
		return errx.Validation("domain, email and password are required")
	}

	code, err := h.service.PasswordLogin(c.Context(), kernel.NewDomain(req.Domain), req.Email, req.Password, req.TOTPCode, req.ConfigURL, req.RedirectURL)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"code": code})
}

type socialLoginRequest struct {
	Domain      string `json:"domain"`
	Provider    string `json:"provider"`
	Assertion   string `json:"assertion"`
	ConfigURL   string `json:"config_url"`
	RedirectURL string `json:"redirect_url"`
}

func (h *Handlers) socialLogin(c *fiber.Ctx) error {
	var req socialLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}
	if req.Domain == "" || req.Provider == "" || req.Assertion == "" {
		return errx.Validation("domain, provider and assertion are required")
	}

	code, err := h.service.SocialLogin(c.Context(), kernel.NewDomain(req.Domain), req.Provider, req.Assertion, req.ConfigURL, req.RedirectURL)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"code": code})
}

type exchangeCodeRequest struct {
	Code      string `json:"code"`
	Domain    string `json:"domain"`
	ConfigURL string `json:"config_url"`
	ClientID  string `json:"client_id"`
}

func (h *Handlers) exchangeCode(c *fiber.Ctx) error {
	var req exchangeCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body")
	}
	if req.Code == "" || req.Domain == "" {
		return errx.Validation("code and domain are required")
	}

	accessToken, err := h.service.ExchangeCode(c.Context(), req.Code, kernel.NewDomain(req.Domain), req.ConfigURL, req.ClientID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"access_token": accessToken,
		"token_type":   "Bearer",
	})
}

func (h *Handlers) me(c *fiber.Ctx) error {
	ac := auth.FromContext(c)
	if ac == nil {
		return iam.ErrUnauthorized()
	}

	return c.JSON(fiber.Map{
		"user_id":   ac.UserID,
		"email":     ac.Email,
		"domain":    ac.Domain,
		"client_id": ac.ClientID,
		"role":      ac.Role,
		"scopes":    ac.Scopes,
		"org":       auth.OrgFromContext(c),
	})
}
