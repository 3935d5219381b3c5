package auth

import (
	"strings"

	"github.com/spec-kit/ticket-portal/internal/domain"
)

// HomeFor returns the landing page for a role; anything but admin lands on the user home.
func HomeFor(role domain.Role) string {
	if role == domain.RoleAdmin {
		return PathAdmin
	}
	return PathHome
}

// RequiredRoleFor returns the role a path demands, or "" when any authenticated session may open it.
// Everything under the admin area is admin-only.
func RequiredRoleFor(path string) domain.Role {
	path = NormalizePath(path)
	if path == PathAdmin || strings.HasPrefix(path, PathAdmin+"/") {
		return domain.RoleAdmin
	}
	return ""
}
