package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-portal/internal/config"
)

// SessionCookie reads and writes the opaque session id cookie.
type SessionCookie struct {
	Name   string
	Secure bool
	MaxAge int
}

// NewSessionCookie derives cookie settings from the session configuration.
func NewSessionCookie(cfg config.SessionConfig) SessionCookie {
	return SessionCookie{Name: cfg.CookieName, Secure: cfg.CookieSecure, MaxAge: cfg.CookieMaxAgeSeconds}
}

// Read returns the session id sent by the browser, or "".
func (sc SessionCookie) Read(c *fiber.Ctx) string {
	return c.Cookies(sc.Name)
}

// Write hands the browser a session id.
func (sc SessionCookie) Write(c *fiber.Ctx, sessionID string) {
	c.Cookie(&fiber.Cookie{
		Name:     sc.Name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   sc.MaxAge,
		Secure:   sc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Clear expires the cookie in the browser.
func (sc SessionCookie) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		Secure:   sc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
