package domain

// Role determines which home a session lands on and which admin pages it may open.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Session is the per-browser record of authentication and onboarding state.
// An empty Token means "not authenticated"; every flag is then treated as false.
type Session struct {
	Token               string `json:"token,omitempty"`
	Role                Role   `json:"role,omitempty"`
	HasProfile          bool   `json:"hasProfile"`
	IsTemporaryPassword bool   `json:"isTemporaryPassword"`
}

// Authenticated reports whether a bearer token is present.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// SessionPatch carries a partial update; nil fields are left untouched.
type SessionPatch struct {
	Token               *string
	Role                *Role
	HasProfile          *bool
	IsTemporaryPassword *bool
}

// Apply returns a copy of s with the patch merged in.
func (p SessionPatch) Apply(s Session) Session {
	if p.Token != nil {
		s.Token = *p.Token
	}
	if p.Role != nil {
		s.Role = *p.Role
	}
	if p.HasProfile != nil {
		s.HasProfile = *p.HasProfile
	}
	if p.IsTemporaryPassword != nil {
		s.IsTemporaryPassword = *p.IsTemporaryPassword
	}
	if s.Token == "" {
		return Session{}
	}
	return s
}

// Empty reports whether the patch changes nothing.
func (p SessionPatch) Empty() bool {
	return p.Token == nil && p.Role == nil && p.HasProfile == nil && p.IsTemporaryPassword == nil
}

// FullPatch builds a patch that overwrites every field of the record.
func FullPatch(s Session) SessionPatch {
	return SessionPatch{
		Token:               &s.Token,
		Role:                &s.Role,
		HasProfile:          &s.HasProfile,
		IsTemporaryPassword: &s.IsTemporaryPassword,
	}
}
