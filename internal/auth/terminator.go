package auth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-portal/internal/domain"
	"github.com/spec-kit/ticket-portal/internal/events"
	"github.com/spec-kit/ticket-portal/internal/repository"
)

// defaultEndTimeout bounds a detached End, including the synchronous audit handlers.
const defaultEndTimeout = 5 * time.Second

// Terminator destroys sessions. Every path that ends a session (logout, a backend 401,
// a failed validation) goes through End so the record, its cached pages and the audit
// trail stay in step.
type Terminator struct {
	sessions   repository.SessionRepository
	pages      repository.PageCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
	timeout    time.Duration
}

// NewTerminator builds a terminator; pages and dispatcher may be nil.
func NewTerminator(sessions repository.SessionRepository, pages repository.PageCache, dispatcher events.Dispatcher, logger *zap.Logger) *Terminator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Terminator{sessions: sessions, pages: pages, dispatcher: dispatcher, logger: logger, timeout: defaultEndTimeout}
}

// EndDetached runs End even when the request that triggered it is cancelled, under its
// own deadline.
func (t *Terminator) EndDetached(ctx context.Context, sessionID string, role domain.Role, reason events.ClearReason, path string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	defer cancel()
	return t.End(ctx, sessionID, role, reason, path)
}

// End clears the session record. Only a failure to clear the record is returned; cache
// and event failures are logged.
func (t *Terminator) End(ctx context.Context, sessionID string, role domain.Role, reason events.ClearReason, path string) error {
	if sessionID == "" {
		return nil
	}
	if err := t.sessions.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	if t.pages != nil {
		if err := t.pages.Purge(ctx, sessionID); err != nil {
			t.logger.Warn("failed to purge page cache", zap.Error(err))
		}
	}

	if t.dispatcher != nil {
		event := events.New(events.EventSessionCleared, sessionID, role, events.SessionClearedPayload{Reason: reason, Path: path})
		if err := t.dispatcher.Publish(ctx, event); err != nil {
			t.logger.Warn("failed to publish session event", zap.String("type", string(event.Type)), zap.Error(err))
		}
	}
	return nil
}
