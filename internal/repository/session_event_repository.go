package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionEvent is one row of the session audit trail.
type SessionEvent struct {
	ID         string
	SessionRef string
	Type       string
	Role       string
	Reason     string
	Path       string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// SessionEventRepository persists the session audit trail.
type SessionEventRepository interface {
	Create(ctx context.Context, event *SessionEvent) error
}

type sessionEventRepository struct {
	pool *pgxpool.Pool
}

// NewSessionEventRepository returns a Postgres-backed implementation.
func NewSessionEventRepository(pool *pgxpool.Pool) SessionEventRepository {
	return &sessionEventRepository{pool: pool}
}

func (r *sessionEventRepository) Create(ctx context.Context, event *SessionEvent) error {
	const query = `
        INSERT INTO session_events (id, session_ref, event_type, role, reason, path, occurred_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		event.ID,
		event.SessionRef,
		event.Type,
		event.Role,
		event.Reason,
		event.Path,
		event.OccurredAt,
	).Scan(&event.CreatedAt)
}
