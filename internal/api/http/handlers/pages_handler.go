package handlers

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-portal/internal/api/dto"
	"github.com/spec-kit/ticket-portal/internal/auth"
	"github.com/spec-kit/ticket-portal/internal/service"
	apperrors "github.com/spec-kit/ticket-portal/pkg/util"
)

// PagesHandler serves protected pages and actions. It runs behind the gate middleware.
type PagesHandler struct {
	pages  *service.PageService
	cookie auth.SessionCookie
}

// NewPagesHandler constructs handler.
func NewPagesHandler(pages *service.PageService, cookie auth.SessionCookie) *PagesHandler {
	return &PagesHandler{pages: pages, cookie: cookie}
}

// Page renders a protected page from the backend data at endpoint.
// A backend 401 sends the browser to login like any other denial.
func (h *PagesHandler) Page(name, endpoint string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID, _ := auth.SessionIDFromContext(c)

		data, err := h.pages.Load(c.UserContext(), sessionID, endpoint)
		if err != nil {
			if sessionEnded(err) {
				h.cookie.Clear(c)
				return c.Redirect(auth.PathLogin, fiber.StatusSeeOther)
			}
			return err
		}
		return c.JSON(fiber.Map{"data": dto.PageResponse{Page: name, Data: data}})
	}
}

// Action forwards the JSON body to endpoint. ":name" segments of endpoint are filled from
// the route parameters of the same name.
func (h *PagesHandler) Action(endpoint string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID, _ := auth.SessionIDFromContext(c)

		target, err := expandEndpoint(endpoint, c.Params)
		if err != nil {
			return err
		}

		var body any
		if raw := c.Body(); len(raw) > 0 {
			if !json.Valid(raw) {
				return apperrors.NewValidationError("invalid payload", nil)
			}
			body = json.RawMessage(append([]byte(nil), raw...))
		}

		data, err := h.pages.Action(c.UserContext(), sessionID, target, body)
		if err != nil {
			return endedSessionError(c, h.cookie, err)
		}
		return c.JSON(fiber.Map{"data": data})
	}
}

func expandEndpoint(endpoint string, param func(key string, defaultValue ...string) string) (string, error) {
	segments := strings.Split(endpoint, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		value := param(seg[1:])
		if value == "" {
			return "", apperrors.NewValidationError("missing path parameter", map[string]any{"param": seg[1:]})
		}
		segments[i] = url.PathEscape(value)
	}
	return strings.Join(segments, "/"), nil
}
