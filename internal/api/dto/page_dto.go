package dto

import (
	"encoding/json"

	"github.com/spec-kit/ticket-portal/internal/domain"
)

// SessionView is the part of a session the browser may see. The token never leaves the server.
type SessionView struct {
	Authenticated       bool        `json:"authenticated"`
	Role                domain.Role `json:"role,omitempty"`
	HasProfile          bool        `json:"hasProfile"`
	IsTemporaryPassword bool        `json:"isTemporaryPassword"`
}

// NewSessionView projects a session.
func NewSessionView(s domain.Session) *SessionView {
	return &SessionView{
		Authenticated:       s.Authenticated(),
		Role:                s.Role,
		HasProfile:          s.HasProfile,
		IsTemporaryPassword: s.IsTemporaryPassword,
	}
}

// PageResponse is the page model rendered for every GET page.
type PageResponse struct {
	Page    string          `json:"page"`
	Session *SessionView    `json:"session,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// GateResponse reports a gate decision to a client-side router.
type GateResponse struct {
	Path   string `json:"path"`
	State  string `json:"state"`
	Target string `json:"target,omitempty"`
}
