package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-portal/internal/auth"
	apperrors "github.com/spec-kit/ticket-portal/pkg/util"
)

// sessionEnded reports whether err means the caller no longer has a usable session.
func sessionEnded(err error) bool {
	return errors.Is(err, auth.ErrNoCredential) || errors.Is(err, auth.ErrInvalidCredential)
}

// endedSessionError drops the cookie and answers 401 with the login page as redirect.
// Other errors pass through.
func endedSessionError(c *fiber.Ctx, cookie auth.SessionCookie, err error) error {
	if !sessionEnded(err) {
		return err
	}
	cookie.Clear(c)
	return apperrors.NewDomainError(apperrors.CodeUnauthorized, "session ended", http.StatusUnauthorized,
		map[string]any{"redirect": auth.PathLogin})
}
