package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-portal/internal/api/dto"
	"github.com/spec-kit/ticket-portal/internal/auth"
	"github.com/spec-kit/ticket-portal/internal/service"
)

// AuthHandler serves the auth pages and their forms.
type AuthHandler struct {
	auth      *service.AuthService
	validator *RequestValidator
	cookie    auth.SessionCookie
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, validator *RequestValidator, cookie auth.SessionCookie) *AuthHandler {
	return &AuthHandler{auth: authService, validator: validator, cookie: cookie}
}

// Page renders the page model of an auth page. These pages open in any session state.
func (h *AuthHandler) Page(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := h.auth.Current(c.UserContext(), h.cookie.Read(c))
		if err != nil {
			return err
		}
		page := dto.PageResponse{Page: name}
		if sess.Authenticated() {
			page.Session = dto.NewSessionView(sess)
		}
		return c.JSON(fiber.Map{"data": page})
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), h.cookie.Read(c), req.Username, req.Password)
	if err != nil {
		return err
	}

	h.cookie.Write(c, result.SessionID)
	return c.JSON(fiber.Map{"data": dto.RedirectResponse{Redirect: result.Redirect}})
}

// ChangePassword handles POST /auth/password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}

	redirect, err := h.auth.ChangePassword(c.UserContext(), h.cookie.Read(c), req.OldPassword, req.NewPassword)
	if err != nil {
		return endedSessionError(c, h.cookie, err)
	}
	return c.JSON(fiber.Map{"data": dto.RedirectResponse{Redirect: redirect}})
}

// RegisterProfile handles POST /auth/profile.
func (h *AuthHandler) RegisterProfile(c *fiber.Ctx) error {
	var req dto.ProfileRequest
	if err := h.validator.Bind(c, &req); err != nil {
		return err
	}

	redirect, err := h.auth.RegisterProfile(c.UserContext(), h.cookie.Read(c), req.Profile())
	if err != nil {
		return endedSessionError(c, h.cookie, err)
	}
	return c.JSON(fiber.Map{"data": dto.RedirectResponse{Redirect: redirect}})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	redirect, err := h.auth.Logout(c.UserContext(), h.cookie.Read(c))
	if err != nil {
		return err
	}
	h.cookie.Clear(c)
	return c.JSON(fiber.Map{"data": dto.RedirectResponse{Redirect: redirect}})
}
