package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-portal/internal/events"
	"github.com/spec-kit/ticket-portal/internal/repository"
)

// AuditService records session lifecycle events in the log and, when configured, in Postgres.
type AuditService struct {
	dispatcher events.Dispatcher
	repo       repository.SessionEventRepository
	logger     *zap.Logger
}

// NewAuditService creates the service; repo may be nil to log only.
func NewAuditService(dispatcher events.Dispatcher, repo repository.SessionEventRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		repo:       repo,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventSessionCreated, a.handleSessionEvent)
	a.dispatcher.Subscribe(events.EventPasswordChanged, a.handleSessionEvent)
	a.dispatcher.Subscribe(events.EventProfileCompleted, a.handleSessionEvent)
	a.dispatcher.Subscribe(events.EventSessionCleared, a.handleSessionEvent)
}

func (a *AuditService) handleSessionEvent(ctx context.Context, event events.Event) error {
	record := &repository.SessionEvent{
		ID:         event.ID,
		SessionRef: SessionRef(event.SessionID),
		Type:       string(event.Type),
		Role:       string(event.Role),
		OccurredAt: event.Timestamp,
	}
	if p, ok := event.Payload.(events.SessionClearedPayload); ok {
		record.Reason = string(p.Reason)
		record.Path = p.Path
	}

	a.logger.Info("session event",
		zap.String("event_type", record.Type),
		zap.String("session_ref", record.SessionRef),
		zap.String("role", record.Role),
		zap.String("reason", record.Reason),
		zap.String("path", record.Path),
	)

	if a.repo == nil {
		return nil
	}
	if err := a.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("persist session event: %w", err)
	}
	return nil
}

// SessionRef is the value stored in place of a session id, which is a bearer secret.
func SessionRef(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:])
}
