package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-portal/internal/api/dto"
	"github.com/spec-kit/ticket-portal/internal/auth"
	"github.com/spec-kit/ticket-portal/internal/service"
	apperrors "github.com/spec-kit/ticket-portal/pkg/util"
)

// GateHandler lets a client-side router ask the gate about a path before navigating.
type GateHandler struct {
	gate   *auth.Gate
	auth   *service.AuthService
	cookie auth.SessionCookie
}

// NewGateHandler constructs handler.
func NewGateHandler(gate *auth.Gate, authService *service.AuthService, cookie auth.SessionCookie) *GateHandler {
	return &GateHandler{gate: gate, auth: authService, cookie: cookie}
}

// Check handles GET /session/gate?path=<p>[&mode=optimistic][&nav=<tab id>].
func (h *GateHandler) Check(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return apperrors.NewValidationError("path is required", nil)
	}
	path = auth.NormalizePath(path)
	sessionID := h.cookie.Read(c)

	var decision auth.Decision
	if c.Query("mode") == "optimistic" {
		sess, err := h.auth.Current(c.UserContext(), sessionID)
		if err != nil {
			return err
		}
		decision = h.gate.Precheck(sess, path)
	} else {
		var err error
		decision, err = h.gate.Navigate(c.UserContext(), sessionID, auth.NavigationID(c), path, auth.RequiredRoleFor(path))
		if errors.Is(err, auth.ErrSuperseded) {
			return apperrors.NewSuperseded(path)
		}
		if err != nil {
			return err
		}
		if decision.State == auth.StateDeniedNoToken && sessionID != "" {
			h.cookie.Clear(c)
		}
	}

	return c.JSON(fiber.Map{"data": dto.GateResponse{
		Path:   path,
		State:  string(decision.State),
		Target: decision.Target,
	}})
}
