package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/petnice/clinic-dashboard/internal/api/dto"
	"github.com/petnice/clinic-dashboard/internal/api/http/views"
	"github.com/petnice/clinic-dashboard/internal/auth"
	"github.com/petnice/clinic-dashboard/internal/service"
	apperrors "github.com/petnice/clinic-dashboard/pkg/util"
)

// Page routes of the auth flow.
const (
	LoginPath     = "/"
	DashboardPath = "/dashboard"
)

// AuthHandler serves the login, registration and logout pages.
type AuthHandler struct {
	auth   *service.AuthService
	cookie SessionCookie
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{auth: authService, cookie: cookie}
}

// LoginPage handles GET /. A signed-in user goes straight to the dashboard.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.IsAuthenticated() {
		return c.Redirect(DashboardPath, fiber.StatusSeeOther)
	}
	return h.renderLogin(c, fiber.StatusOK, dto.LoginRequest{Next: auth.SafeNext(c.Query("next"))}, "")
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderLogin(c, fiber.StatusBadRequest, req, "invalid form submission")
	}

	sid := uuid.NewString()
	if _, err := h.auth.Login(c.UserContext(), sid, req.Email, req.Password); err != nil {
		de := apperrors.ToDomainError(err)
		return h.renderLogin(c, de.HTTPStatus, req, de.Message)
	}

	// the old session id is never reused after sign-in
	if previous, ok := auth.PrincipalFromContext(c); ok && previous.IsAuthenticated() {
		h.auth.Logout(c.UserContext(), previous)
	}
	h.cookie.Set(c, sid)

	target := DashboardPath
	if next := auth.SafeNext(req.Next); next != "" && next != LoginPath {
		target = next
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (h *AuthHandler) RegisterPage(c *fiber.Ctx) error {
	return h.renderRegister(c, fiber.StatusOK, dto.RegisterRequest{}, "", nil)
}

// Register handles POST /register. Success leads back to the login page; the new
// account is not signed in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderRegister(c, fiber.StatusBadRequest, req, "invalid form submission", nil)
	}
	if err := req.Validate(); err != nil {
		return h.renderRegister(c, fiber.StatusUnprocessableEntity, req, apperrors.UserMessage(err), dto.FieldErrorsOf(err))
	}

	if err := h.auth.Register(c.UserContext(), req.FullName, req.Email, req.Password); err != nil {
		de := apperrors.ToDomainError(err)
		return h.renderRegister(c, de.HTTPStatus, req, de.Message, nil)
	}
	return c.Redirect(LoginPath+"?registered=1", fiber.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		h.auth.Logout(c.UserContext(), principal)
	}
	h.cookie.Clear(c)
	return c.Redirect(LoginPath, fiber.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(c *fiber.Ctx, status int, req dto.LoginRequest, message string) error {
	return c.Status(status).Render("login", fiber.Map{
		"Title":      "Sign in",
		"Email":      req.Email,
		"Next":       auth.SafeNext(req.Next),
		"Registered": c.Query("registered") == "1",
		"Error":      message,
	}, views.Layout)
}

func (h *AuthHandler) renderRegister(c *fiber.Ctx, status int, req dto.RegisterRequest, message string, fieldErrors map[string]string) error {
	if fieldErrors == nil {
		fieldErrors = map[string]string{}
	}
	return c.Status(status).Render("register", fiber.Map{
		"Title":       "Register",
		"Form":        req,
		"Error":       message,
		"FieldErrors": fieldErrors,
	}, views.Layout)
}
