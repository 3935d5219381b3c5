package service

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-portal/internal/auth"
	"github.com/spec-kit/ticket-portal/internal/backend"
	"github.com/spec-kit/ticket-portal/internal/domain"
	"github.com/spec-kit/ticket-portal/internal/events"
	"github.com/spec-kit/ticket-portal/internal/repository"
	apperrors "github.com/spec-kit/ticket-portal/pkg/util"
)

// PageBackend fetches and submits page data on the caller's behalf.
type PageBackend interface {
	Get(ctx context.Context, token, path string) (json.RawMessage, error)
	Post(ctx context.Context, token, path string, body any) (json.RawMessage, error)
}

// PageDependencies wires a PageService. Pages may be nil to disable caching.
type PageDependencies struct {
	Backend    PageBackend
	Sessions   repository.SessionRepository
	Pages      repository.PageCache
	Terminator *auth.Terminator
	Logger     *zap.Logger
}

// PageService loads the backend data behind protected pages.
type PageService struct {
	backend    PageBackend
	sessions   repository.SessionRepository
	pages      repository.PageCache
	terminator *auth.Terminator
	logger     *zap.Logger
}

// NewPageService builds the service.
func NewPageService(deps PageDependencies) *PageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	terminator := deps.Terminator
	if terminator == nil {
		terminator = auth.NewTerminator(deps.Sessions, deps.Pages, nil, logger)
	}
	return &PageService{
		backend:    deps.Backend,
		sessions:   deps.Sessions,
		pages:      deps.Pages,
		terminator: terminator,
		logger:     logger,
	}
}

// Load returns the data behind endpoint, from the session's page cache when fresh.
func (s *PageService) Load(ctx context.Context, sessionID, endpoint string) (json.RawMessage, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.pages != nil {
		data, ok, err := s.pages.Get(ctx, sessionID, endpoint)
		if err != nil {
			s.logger.Warn("page cache read failed", zap.String("endpoint", endpoint), zap.Error(err))
		} else if ok {
			return data, nil
		}
	}

	data, err := s.backend.Get(ctx, sess.Token, endpoint)
	if err != nil {
		return nil, s.backendError(ctx, sessionID, sess, endpoint, err)
	}

	if s.pages != nil {
		if err := s.pages.Put(ctx, sessionID, endpoint, data); err != nil {
			s.logger.Warn("page cache write failed", zap.String("endpoint", endpoint), zap.Error(err))
		}
	}
	return data, nil
}

// Action posts body to endpoint. Cached pages of the session are dropped afterwards.
func (s *PageService) Action(ctx context.Context, sessionID, endpoint string, body any) (json.RawMessage, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	data, err := s.backend.Post(ctx, sess.Token, endpoint, body)
	if err != nil {
		return nil, s.backendError(ctx, sessionID, sess, endpoint, err)
	}

	if s.pages != nil {
		if err := s.pages.Purge(ctx, sessionID); err != nil {
			s.logger.Warn("page cache purge failed", zap.Error(err))
		}
	}
	return data, nil
}

func (s *PageService) session(ctx context.Context, sessionID string) (domain.Session, error) {
	if sessionID == "" {
		return domain.Session{}, auth.ErrNoCredential
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Session{}, apperrors.NewInternalError(err)
	}
	if !sess.Authenticated() {
		return domain.Session{}, auth.ErrNoCredential
	}
	return sess, nil
}

func (s *PageService) backendError(ctx context.Context, sessionID string, sess domain.Session, endpoint string, err error) error {
	status := backend.StatusOf(err)
	switch {
	case status == http.StatusUnauthorized:
		if endErr := s.terminator.EndDetached(ctx, sessionID, sess.Role, events.ReasonUnauthorized, endpoint); endErr != nil {
			s.logger.Error("failed to clear session", zap.Error(endErr))
		}
		return auth.ErrInvalidCredential
	case status == http.StatusForbidden:
		return apperrors.NewForbidden(backend.MessageOf(err, "access denied"))
	case status == http.StatusNotFound:
		return apperrors.NewNotFound("page data", map[string]any{"endpoint": endpoint})
	case status >= 400 && status < 500:
		return apperrors.NewFormError(status, backend.MessageOf(err, "request rejected"))
	}
	s.logger.Warn("backend page call failed", zap.String("endpoint", endpoint), zap.Error(err))
	return apperrors.NewBadGateway(err)
}
