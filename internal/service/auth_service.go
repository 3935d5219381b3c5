package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-portal/internal/auth"
	"github.com/spec-kit/ticket-portal/internal/backend"
	"github.com/spec-kit/ticket-portal/internal/domain"
	"github.com/spec-kit/ticket-portal/internal/events"
	"github.com/spec-kit/ticket-portal/internal/repository"
	apperrors "github.com/spec-kit/ticket-portal/pkg/util"
)

// Messages shown when the backend rejects a form without saying why.
const (
	MsgInvalidCredentials   = "invalid credentials"
	MsgChangePasswordFailed = "could not change password, please try again"
	MsgSaveProfileFailed    = "could not save profile, please try again"
)

// AuthBackend is the part of the REST backend the onboarding flows talk to.
type AuthBackend interface {
	Login(ctx context.Context, username, password string) (*backend.LoginResponse, error)
	ChangePassword(ctx context.Context, token, oldPassword, newPassword string) (*backend.ChangePasswordResponse, error)
	RegisterProfile(ctx context.Context, token string, profile domain.Profile) error
	Logout(ctx context.Context, token string) error
}

// LoginResult is what the browser needs after a successful login.
type LoginResult struct {
	SessionID string
	Session   domain.Session
	Redirect  string
}

// AuthService coordinates login, the onboarding steps and logout.
type AuthService struct {
	backend    AuthBackend
	sessions   repository.SessionRepository
	terminator *auth.Terminator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	Backend    AuthBackend
	Sessions   repository.SessionRepository
	Terminator *auth.Terminator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	terminator := deps.Terminator
	if terminator == nil {
		terminator = auth.NewTerminator(deps.Sessions, nil, deps.Dispatcher, logger)
	}
	return &AuthService{
		backend:    deps.Backend,
		sessions:   deps.Sessions,
		terminator: terminator,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Current returns the session stored under sessionID; unknown ids yield the zero Session.
func (s *AuthService) Current(ctx context.Context, sessionID string) (domain.Session, error) {
	if sessionID == "" {
		return domain.Session{}, nil
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Session{}, apperrors.NewInternalError(err)
	}
	return sess, nil
}

// Login authenticates against the backend and stores a fresh session.
// Any session the browser still carried is ended first.
func (s *AuthService) Login(ctx context.Context, previousSessionID, username, password string) (*LoginResult, error) {
	resp, err := s.backend.Login(ctx, username, password)
	if err != nil {
		return nil, s.formError(err, MsgInvalidCredentials)
	}

	if previousSessionID != "" {
		if prev, err := s.sessions.Get(ctx, previousSessionID); err == nil && prev.Authenticated() {
			if err := s.terminator.End(ctx, previousSessionID, prev.Role, events.ReasonReplaced, auth.PathLogin); err != nil {
				s.logger.Warn("failed to end previous session", zap.Error(err))
			}
		}
	}

	sessionID := uuid.NewString()
	sess, err := s.sessions.Set(ctx, sessionID, domain.FullPatch(domain.Session{
		Token:               resp.Token,
		Role:                resp.Role,
		HasProfile:          resp.HasProfile,
		IsTemporaryPassword: resp.IsTemporaryPassword,
	}))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.New(events.EventSessionCreated, sessionID, sess.Role, nil))
	return &LoginResult{SessionID: sessionID, Session: sess, Redirect: auth.LandingTarget(sess)}, nil
}

// ChangePassword replaces a temporary (or any) password and returns the next landing page.
func (s *AuthService) ChangePassword(ctx context.Context, sessionID, oldPassword, newPassword string) (string, error) {
	sess, err := s.authenticated(ctx, sessionID)
	if err != nil {
		return "", err
	}

	resp, err := s.backend.ChangePassword(ctx, sess.Token, oldPassword, newPassword)
	if err != nil {
		return "", s.mutationError(ctx, sessionID, sess, err, MsgChangePasswordFailed, auth.PathPassword)
	}

	temporary := false
	patch := domain.SessionPatch{IsTemporaryPassword: &temporary}
	if resp != nil && resp.Token != "" {
		patch.Token = &resp.Token
	}
	updated, err := s.sessions.Set(ctx, sessionID, patch)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if !updated.Authenticated() {
		return "", auth.ErrNoCredential
	}

	s.publish(ctx, events.New(events.EventPasswordChanged, sessionID, updated.Role, nil))
	return auth.LandingTarget(updated), nil
}

// RegisterProfile submits the one-time profile and returns the next landing page.
func (s *AuthService) RegisterProfile(ctx context.Context, sessionID string, profile domain.Profile) (string, error) {
	sess, err := s.authenticated(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if err := s.backend.RegisterProfile(ctx, sess.Token, profile); err != nil {
		return "", s.mutationError(ctx, sessionID, sess, err, MsgSaveProfileFailed, auth.PathProfile)
	}

	hasProfile := true
	updated, err := s.sessions.Set(ctx, sessionID, domain.SessionPatch{HasProfile: &hasProfile})
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if !updated.Authenticated() {
		return "", auth.ErrNoCredential
	}

	s.publish(ctx, events.New(events.EventProfileCompleted, sessionID, updated.Role, nil))
	return auth.LandingTarget(updated), nil
}

// Logout ends the session. The backend is told on a best-effort basis only.
func (s *AuthService) Logout(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return auth.PathLogin, nil
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.logger.Warn("session lookup failed during logout", zap.Error(err))
	}
	if sess.Authenticated() {
		if err := s.backend.Logout(ctx, sess.Token); err != nil {
			s.logger.Info("backend logout failed", zap.Error(err))
		}
	}

	if err := s.terminator.EndDetached(ctx, sessionID, sess.Role, events.ReasonLogout, ""); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return auth.PathLogin, nil
}

func (s *AuthService) authenticated(ctx context.Context, sessionID string) (domain.Session, error) {
	sess, err := s.Current(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if !sess.Authenticated() {
		return domain.Session{}, auth.ErrNoCredential
	}
	return sess, nil
}

// mutationError turns a backend failure on an authenticated form into the caller's error.
// A 401 ends the session.
func (s *AuthService) mutationError(ctx context.Context, sessionID string, sess domain.Session, err error, fallback, path string) error {
	if backend.IsUnauthorized(err) {
		if endErr := s.terminator.EndDetached(ctx, sessionID, sess.Role, events.ReasonUnauthorized, path); endErr != nil {
			s.logger.Error("failed to clear session", zap.Error(endErr))
		}
		return auth.ErrInvalidCredential
	}
	return s.formError(err, fallback)
}

func (s *AuthService) formError(err error, fallback string) error {
	if status := backend.StatusOf(err); status >= 400 && status < 500 {
		return apperrors.NewFormError(status, backend.MessageOf(err, fallback))
	}
	s.logger.Warn("backend call failed", zap.Error(err))
	return apperrors.NewBadGateway(err)
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish session event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
