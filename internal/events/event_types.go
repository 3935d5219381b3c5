package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionCreated   EventType = "session_created"
	EventPasswordChanged  EventType = "password_changed"
	EventProfileCompleted EventType = "profile_completed"
	EventSessionCleared   EventType = "session_cleared"
)

// ClearReason says why a session was destroyed.
type ClearReason string

const (
	ReasonLogout           ClearReason = "logout"
	ReasonUnauthorized     ClearReason = "unauthorized"
	ReasonInvalidToken     ClearReason = "invalid_token"
	ReasonTokenExpired     ClearReason = "token_expired"
	ReasonValidationFailed ClearReason = "validation_failed"
	ReasonReplaced         ClearReason = "replaced"
)

// Event represents a session lifecycle change.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"-"`
	Role      domain.Role `json:"role,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// SessionClearedPayload payload.
type SessionClearedPayload struct {
	Reason ClearReason `json:"reason"`
	Path   string      `json:"path,omitempty"`
}

// New stamps an event with an id and the current time.
func New(eventType EventType, sessionID string, role domain.Role, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		Role:      role,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
