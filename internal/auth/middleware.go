package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-portal/internal/domain"
	apperrors "github.com/spec-kit/ticket-portal/pkg/util"
)

const sessionIDKey = "portal_session_id"

// NavigationHeader carries the per-tab navigation id a client-side router sends with each
// page request. The "nav" query parameter is accepted as well.
const NavigationHeader = "X-Portal-Navigation"

// NavigationID returns the navigating client's id, or "" when the request did not send one.
func NavigationID(c *fiber.Ctx) string {
	if id := c.Get(NavigationHeader); id != "" {
		return id
	}
	return c.Query("nav")
}

// GateMiddleware runs the session gate in front of protected routes.
type GateMiddleware struct {
	gate   *Gate
	cookie SessionCookie
	logger *zap.Logger
}

// NewGateMiddleware constructs middleware.
func NewGateMiddleware(gate *Gate, cookie SessionCookie, logger *zap.Logger) *GateMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GateMiddleware{gate: gate, cookie: cookie, logger: logger}
}

// Require gates the route; role may be empty for pages any session can open.
// Denials answer 303 See Other to the decision's target. Only page loads can be
// superseded by the same tab's next navigation; form posts always run to completion.
func (m *GateMiddleware) Require(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := m.cookie.Read(c)
		path := c.Path()

		var navigation string
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			navigation = NavigationID(c)
		}

		decision, err := m.gate.Navigate(c.UserContext(), sessionID, navigation, path, role)
		if err != nil {
			if errors.Is(err, ErrSuperseded) {
				return apperrors.NewSuperseded(path)
			}
			return apperrors.MapError(err)
		}

		if !decision.Allowed() {
			if decision.State == StateDeniedNoToken && sessionID != "" {
				m.cookie.Clear(c)
			}
			return c.Redirect(decision.Target, fiber.StatusSeeOther)
		}

		c.Locals(sessionIDKey, sessionID)
		return c.Next()
	}
}

// SessionIDFromContext returns the session id of a request that passed the gate.
func SessionIDFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(sessionIDKey)
	if val == nil {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}
