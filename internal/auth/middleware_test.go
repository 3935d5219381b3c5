package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-portal/internal/backend"
	"github.com/spec-kit/ticket-portal/internal/domain"
)

func newGatedApp(fx *gateFixture) *fiber.App {
	app := fiber.New()
	mw := NewGateMiddleware(fx.gate, SessionCookie{Name: "user-token"}, nil)

	page := func(c *fiber.Ctx) error {
		id, ok := SessionIDFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(c.Path() + ":" + id)
	}
	app.Get("/admin", mw.Require(domain.RoleAdmin), page)
	app.Get("/home", mw.Require(""), page)
	return app
}

func gatedRequest(t *testing.T, app *fiber.App, path, sessionID string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "user-token", Value: sessionID})
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestGateMiddleware_Allows(t *testing.T) {
	fx := newGateFixture(t, acceptAll())
	fx.seed(t, "s1", adminSession)
	app := newGatedApp(fx)

	resp := gatedRequest(t, app, "/admin", "s1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "/admin:s1", string(body))
}

func TestGateMiddleware_Redirects(t *testing.T) {
	fx := newGateFixture(t, acceptAll())
	fx.seed(t, "user", userSession)
	fx.seed(t, "temp", domain.Session{Token: "t2", Role: domain.RoleUser, IsTemporaryPassword: true})
	app := newGatedApp(fx)

	cases := []struct {
		name      string
		path      string
		sessionID string
		location  string
	}{
		{"wrong role goes to own home", "/admin", "user", "/home"},
		{"no cookie goes to login", "/home", "", "/auth/login"},
		{"unknown session goes to login", "/home", "nope", "/auth/login"},
		{"temporary password", "/home", "temp", "/auth/password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := gatedRequest(t, app, tc.path, tc.sessionID)
			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, tc.location, resp.Header.Get("Location"))
		})
	}
}

func TestGateMiddleware_InvalidTokenClearsCookie(t *testing.T) {
	fx := newGateFixture(t, rejectWith(&backend.Error{Status: http.StatusUnauthorized}))
	fx.seed(t, "s1", userSession)
	app := newGatedApp(fx)

	resp := gatedRequest(t, app, "/home", "s1")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "user-token=;")

	sess, err := fx.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
}

func TestNavigationID(t *testing.T) {
	app := fiber.New()
	app.Get("/nav", func(c *fiber.Ctx) error {
		return c.SendString(NavigationID(c))
	})

	cases := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{"header", "/nav", "tab-1", "tab-1"},
		{"query", "/nav?nav=tab-2", "", "tab-2"},
		{"header wins", "/nav?nav=tab-2", "tab-1", "tab-1"},
		{"none", "/nav", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set(NavigationHeader, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(body))
		})
	}
}
