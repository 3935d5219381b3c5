package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-portal/internal/backend"
	"github.com/spec-kit/ticket-portal/internal/config"
	"github.com/spec-kit/ticket-portal/internal/domain"
	"github.com/spec-kit/ticket-portal/internal/events"
	"github.com/spec-kit/ticket-portal/internal/observability"
	"github.com/spec-kit/ticket-portal/internal/repository"
)

var (
	// ErrSuperseded means the same client started a newer navigation; the result was dropped.
	ErrSuperseded = errors.New("gate evaluation superseded")
	// ErrNoCredential means the session carries no token.
	ErrNoCredential = errors.New("no credential")
	// ErrInvalidCredential means the backend rejected the session's token and the session was cleared.
	ErrInvalidCredential = errors.New("invalid credential")
)

// State is the outcome of one gate evaluation.
type State string

const (
	StateChecking                State = "CHECKING"
	StateDeniedNoToken           State = "DENIED_NO_TOKEN"
	StateDeniedBadRole           State = "DENIED_BAD_ROLE"
	StateForcedPasswordChange    State = "FORCED_PASSWORD_CHANGE"
	StateForcedProfileCompletion State = "FORCED_PROFILE_COMPLETION"
	StateAllowed                 State = "ALLOWED"
)

// Decision is a gate state plus where to redirect when the page may not render.
type Decision struct {
	State  State  `json:"state"`
	Target string `json:"target,omitempty"`
}

// Allowed reports whether the wrapped page may render.
func (d Decision) Allowed() bool {
	return d.State == StateAllowed
}

var (
	allow        = Decision{State: StateAllowed}
	denyNoToken  = Decision{State: StateDeniedNoToken, Target: PathLogin}
	stillPending = Decision{State: StateChecking}
)

// Onboarding returns the pending onboarding step for s, or ALLOWED when there is none.
// A temporary password always comes before a missing profile. The step's own page, and the
// password page for a missing profile, are not redirected away from.
//
// Login uses this same function to pick its landing page.
func Onboarding(s domain.Session, path string) Decision {
	path = NormalizePath(path)
	switch {
	case s.IsTemporaryPassword:
		if path == PathPassword {
			return allow
		}
		return Decision{State: StateForcedPasswordChange, Target: PathPassword}
	case !s.HasProfile:
		if path == PathProfile || path == PathPassword {
			return allow
		}
		return Decision{State: StateForcedProfileCompletion, Target: PathProfile}
	}
	return allow
}

// LandingTarget is where a session goes after login or a finished onboarding step.
func LandingTarget(s domain.Session) string {
	if !s.Authenticated() {
		return PathLogin
	}
	if d := Onboarding(s, ""); !d.Allowed() {
		return d.Target
	}
	return HomeFor(s.Role)
}

// Decide applies the gate's ordered checks to a session whose token is known to be good
// (or absent). It performs no I/O.
func Decide(s domain.Session, path string, required domain.Role) Decision {
	if IsAuthPage(path) {
		return allow
	}
	if !s.Authenticated() {
		return denyNoToken
	}
	if required != "" && s.Role != required {
		return Decision{State: StateDeniedBadRole, Target: HomeFor(s.Role)}
	}
	return Onboarding(s, path)
}

// TokenValidator is the backend's validate-token call.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*backend.Validation, error)
}

// GateDependencies wires a Gate.
type GateDependencies struct {
	Sessions   repository.SessionRepository
	Validator  TokenValidator
	Terminator *Terminator
	Tokens     *TokenInspector
	Sequencer  *Sequencer
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// Gate decides whether a session may open a page.
type Gate struct {
	sessions   repository.SessionRepository
	validator  TokenValidator
	terminator *Terminator
	tokens     *TokenInspector
	seq        *Sequencer
	metrics    *observability.Metrics
	logger     *zap.Logger
	timeout    time.Duration
}

// NewGate constructs a gate.
func NewGate(cfg config.GateConfig, deps GateDependencies) *Gate {
	g := &Gate{
		sessions:   deps.Sessions,
		validator:  deps.Validator,
		terminator: deps.Terminator,
		tokens:     deps.Tokens,
		seq:        deps.Sequencer,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		timeout:    cfg.ValidationTimeout(),
	}
	if g.tokens == nil {
		g.tokens = NewTokenInspector(cfg.ClockSkew())
	}
	if g.seq == nil {
		g.seq = NewSequencer()
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.terminator == nil {
		g.terminator = NewTerminator(deps.Sessions, nil, nil, g.logger)
	}
	return g
}

// Precheck is the optimistic phase: it answers from the cached session alone and reports
// CHECKING whenever the token still has to be validated.
func (g *Gate) Precheck(s domain.Session, path string) Decision {
	if IsAuthPage(path) {
		return allow
	}
	if !s.Authenticated() || g.tokens.Expired(s.Token) {
		return denyNoToken
	}
	return stillPending
}

// Evaluate runs both phases for the session stored under sessionID. A failed, rejected or
// timed-out validation clears the session and denies.
//
// Evaluate is not sequenced: concurrent evaluations for one session (form posts, other
// tabs, prefetches) all complete. Use Navigate for a client that can move on.
func (g *Gate) Evaluate(ctx context.Context, sessionID, path string, required domain.Role) (Decision, error) {
	return g.Navigate(ctx, sessionID, "", path, required)
}

// Navigate is Evaluate for one navigating client, identified by navigation (a per-tab id).
// When the same client starts a newer navigation meanwhile, Navigate returns ErrSuperseded
// and leaves the session untouched. An empty navigation is not sequenced.
func (g *Gate) Navigate(ctx context.Context, sessionID, navigation, path string, required domain.Role) (Decision, error) {
	path = NormalizePath(path)
	if IsAuthPage(path) {
		return g.commit(sessionID, path, allow), nil
	}

	sess, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		g.logger.Error("session lookup failed", zap.String("path", path), zap.Error(err))
		return g.commit(sessionID, path, denyNoToken), nil
	}
	if !sess.Authenticated() {
		return g.commit(sessionID, path, denyNoToken), nil
	}
	if g.tokens.Expired(sess.Token) {
		g.end(ctx, sessionID, sess.Role, events.ReasonTokenExpired, path)
		return g.commit(sessionID, path, denyNoToken), nil
	}

	flightCtx := ctx
	var ticket Ticket
	if navigation != "" {
		flightCtx, ticket = g.seq.Begin(ctx, sessionID, navigation, path)
	}
	validateCtx, cancel := context.WithTimeout(flightCtx, g.timeout)
	start := time.Now()
	validation, verr := g.validator.ValidateToken(validateCtx, sess.Token)
	cancel()

	if navigation != "" {
		if newer, current := g.seq.Finish(ticket); !current {
			g.metrics.RecordValidation("superseded", time.Since(start))
			g.logger.Debug("gate evaluation superseded",
				zap.String("path", path),
				zap.String("superseded_by", newer),
			)
			return stillPending, ErrSuperseded
		}
	}
	if verr != nil && ctx.Err() != nil {
		// The caller went away; nobody is waiting for a redirect.
		g.metrics.RecordValidation("aborted", time.Since(start))
		return stillPending, ctx.Err()
	}
	if verr != nil {
		outcome, reason := classifyValidationError(verr)
		g.metrics.RecordValidation(outcome, time.Since(start))
		g.logger.Info("token validation failed",
			zap.String("path", path),
			zap.String("outcome", outcome),
			zap.Error(verr),
		)
		g.end(ctx, sessionID, sess.Role, reason, path)
		return g.commit(sessionID, path, denyNoToken), nil
	}
	g.metrics.RecordValidation("ok", time.Since(start))

	// Re-read even when nothing was echoed: a logout may have landed while we waited.
	if patch := validation.Patch(); !patch.Empty() {
		sess, err = g.sessions.Set(ctx, sessionID, patch)
	} else {
		sess, err = g.sessions.Get(ctx, sessionID)
	}
	if err != nil {
		g.logger.Error("session refresh failed", zap.String("path", path), zap.Error(err))
		return g.commit(sessionID, path, denyNoToken), nil
	}

	return g.commit(sessionID, path, Decide(sess, path, required)), nil
}

func (g *Gate) end(ctx context.Context, sessionID string, role domain.Role, reason events.ClearReason, path string) {
	if err := g.terminator.EndDetached(ctx, sessionID, role, reason, path); err != nil {
		g.logger.Error("failed to clear session", zap.String("reason", string(reason)), zap.Error(err))
	}
}

func (g *Gate) commit(sessionID, path string, d Decision) Decision {
	g.metrics.RecordDecision(string(d.State))
	g.logger.Debug("gate decision",
		zap.Bool("session", sessionID != ""),
		zap.String("path", path),
		zap.String("state", string(d.State)),
		zap.String("target", d.Target),
	)
	return d
}

func classifyValidationError(err error) (string, events.ClearReason) {
	if backend.StatusOf(err) != 0 {
		return "rejected", events.ReasonInvalidToken
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout", events.ReasonValidationFailed
	}
	return "error", events.ReasonValidationFailed
}
