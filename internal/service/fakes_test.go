package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-portal/internal/auth"
	"github.com/spec-kit/ticket-portal/internal/backend"
	"github.com/spec-kit/ticket-portal/internal/domain"
	"github.com/spec-kit/ticket-portal/internal/events"
	"github.com/spec-kit/ticket-portal/internal/repository"
)

type fakeBackend struct {
	login           func(username, password string) (*backend.LoginResponse, error)
	changePassword  func(token, oldPassword, newPassword string) (*backend.ChangePasswordResponse, error)
	registerProfile func(token string, profile domain.Profile) error
	logout          func(token string) error
	get             func(token, path string) (json.RawMessage, error)
	post            func(token, path string, body any) (json.RawMessage, error)
}

func (f *fakeBackend) Login(_ context.Context, username, password string) (*backend.LoginResponse, error) {
	return f.login(username, password)
}

func (f *fakeBackend) ChangePassword(_ context.Context, token, oldPassword, newPassword string) (*backend.ChangePasswordResponse, error) {
	return f.changePassword(token, oldPassword, newPassword)
}

func (f *fakeBackend) RegisterProfile(_ context.Context, token string, profile domain.Profile) error {
	return f.registerProfile(token, profile)
}

func (f *fakeBackend) Logout(_ context.Context, token string) error {
	if f.logout == nil {
		return nil
	}
	return f.logout(token)
}

func (f *fakeBackend) Get(_ context.Context, token, path string) (json.RawMessage, error) {
	return f.get(token, path)
}

func (f *fakeBackend) Post(_ context.Context, token, path string, body any) (json.RawMessage, error) {
	return f.post(token, path, body)
}

type memoryPageCache struct {
	mu      sync.Mutex
	entries map[string]map[string][]byte
}

func newMemoryPageCache() *memoryPageCache {
	return &memoryPageCache{entries: make(map[string]map[string][]byte)}
}

func (c *memoryPageCache) Get(_ context.Context, sessionID, endpoint string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[sessionID][endpoint]
	return data, ok, nil
}

func (c *memoryPageCache) Put(_ context.Context, sessionID, endpoint string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[sessionID] == nil {
		c.entries[sessionID] = make(map[string][]byte)
	}
	c.entries[sessionID][endpoint] = data
	return nil
}

func (c *memoryPageCache) Purge(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
	return nil
}

func (c *memoryPageCache) size(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries[sessionID])
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.EventType
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type harness struct {
	backend  *fakeBackend
	sessions repository.SessionRepository
	pages    *memoryPageCache
	events   *recorder
	auth     *AuthService
	page     *PageService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend:  &fakeBackend{},
		sessions: repository.NewMemorySessionRepository(),
		pages:    newMemoryPageCache(),
		events:   &recorder{},
	}

	dispatcher := events.NewInMemoryDispatcher()
	for _, typ := range []events.EventType{
		events.EventSessionCreated,
		events.EventPasswordChanged,
		events.EventProfileCompleted,
		events.EventSessionCleared,
	} {
		dispatcher.Subscribe(typ, h.events.handle)
	}

	terminator := auth.NewTerminator(h.sessions, h.pages, dispatcher, zap.NewNop())
	h.auth = NewAuthService(AuthDependencies{
		Backend:    h.backend,
		Sessions:   h.sessions,
		Terminator: terminator,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	h.page = NewPageService(PageDependencies{
		Backend:    h.backend,
		Sessions:   h.sessions,
		Pages:      h.pages,
		Terminator: terminator,
		Logger:     zap.NewNop(),
	})
	return h
}

func (h *harness) seed(t *testing.T, id string, s domain.Session) {
	t.Helper()
	if _, err := h.sessions.Set(context.Background(), id, domain.FullPatch(s)); err != nil {
		t.Fatal(err)
	}
}
