package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/ticket-portal/internal/domain"
)

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

// NewMemorySessionRepository keeps sessions in process memory; used for development and tests.
func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string]domain.Session)}
}

func (r *memorySessionRepository) Get(_ context.Context, id string) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id], nil
}

func (r *memorySessionRepository) Set(_ context.Context, id string, patch domain.SessionPatch) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, ErrNoSessionID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	merged := patch.Apply(r.sessions[id])
	if !merged.Authenticated() {
		delete(r.sessions, id)
		return domain.Session{}, nil
	}
	r.sessions[id] = merged
	return merged, nil
}

func (r *memorySessionRepository) Clear(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}
