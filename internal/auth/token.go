package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenInspector reads the expiry a backend token carries about itself.
//
// The portal never holds the backend's signing key, so claims are parsed without
// verification and used only to deny early; a token that looks valid still goes to the backend.
type TokenInspector struct {
	skew   time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenInspector builds an inspector tolerating the given clock skew.
func NewTokenInspector(skew time.Duration) *TokenInspector {
	return &TokenInspector{skew: skew, now: time.Now, parser: jwt.NewParser()}
}

// ExpiresAt returns the token's exp claim when the token is a JWT that has one.
func (ti *TokenInspector) ExpiresAt(token string) (time.Time, bool) {
	if ti == nil || token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := ti.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token's own exp claim lies in the past, skew included.
// Opaque tokens are never considered expired here.
func (ti *TokenInspector) Expired(token string) bool {
	exp, ok := ti.ExpiresAt(token)
	if !ok {
		return false
	}
	return ti.now().After(exp.Add(ti.skew))
}
