package auth

import "strings"

// Client-visible page paths.
const (
	PathLogin    = "/auth/login"
	PathPassword = "/auth/password"
	PathProfile  = "/auth/profile"
	PathHome     = "/home"
	PathAdmin    = "/admin"
)

// authPages is the closed set of pages exempt from gating. Membership is exact:
// "/auth/login-help" or "/auth/profile/photo" are ordinary protected paths.
var authPages = map[string]struct{}{
	PathLogin:    {},
	PathPassword: {},
	PathProfile:  {},
}

// NormalizePath strips the query string and a trailing slash and lowercases the rest, the
// way the router matches routes; the empty path becomes "/".
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.ToLower(path)
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}

// IsAuthPage reports whether path is one of the gate-exempt auth pages.
func IsAuthPage(path string) bool {
	_, ok := authPages[NormalizePath(path)]
	return ok
}
