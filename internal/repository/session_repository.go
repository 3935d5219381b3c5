package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-portal/internal/domain"
)

// Session hash fields, one discrete string entry per flag.
const (
	fieldToken               = "token"
	fieldRole                = "role"
	fieldHasProfile          = "hasProfile"
	fieldIsTemporaryPassword = "isTemporaryPassword"
)

// maxSetAttempts bounds optimistic-lock retries on a contended session record.
const maxSetAttempts = 5

var (
	// ErrNoSessionID is returned when writing without a session identifier.
	ErrNoSessionID = errors.New("session id required")
	// ErrSessionContended is returned when the record kept changing under a Set.
	ErrSessionContended = errors.New("session record changed concurrently")
)

// SessionRepository stores the per-browser Session record.
//
// Get never fails for an unknown id: it returns the zero Session, and a stored record
// without a token also reads back as the zero Session. Set re-reads the whole record,
// merges the patch and writes the whole record back atomically. A patch that leaves the
// record without a token deletes it, so a flow that races a clear cannot resurrect flags.
type SessionRepository interface {
	Get(ctx context.Context, id string) (domain.Session, error)
	Set(ctx context.Context, id string, patch domain.SessionPatch) (domain.Session, error)
	Clear(ctx context.Context, id string) error
}

type redisSessionRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisSessionRepository returns a Redis-backed implementation keeping one hash per session.
// A positive ttl is refreshed on every read and write.
func NewRedisSessionRepository(client redis.UniversalClient, prefix string, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisSessionRepository) key(id string) string {
	return r.prefix + id
}

func (r *redisSessionRepository) Get(ctx context.Context, id string) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, nil
	}

	vals, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return domain.Session{}, err
	}
	sess := decodeSession(vals)
	if sess.Authenticated() && r.ttl > 0 {
		if err := r.client.Expire(ctx, r.key(id), r.ttl).Err(); err != nil {
			return domain.Session{}, err
		}
	}
	return sess, nil
}

func (r *redisSessionRepository) Set(ctx context.Context, id string, patch domain.SessionPatch) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, ErrNoSessionID
	}

	key := r.key(id)
	var merged domain.Session
	txf := func(tx *redis.Tx) error {
		vals, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		merged = patch.Apply(decodeSession(vals))

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if !merged.Authenticated() {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.HSet(ctx, key, encodeSession(merged))
			if r.ttl > 0 {
				pipe.Expire(ctx, key, r.ttl)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxSetAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return merged, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.Session{}, err
	}
	return domain.Session{}, ErrSessionContended
}

func (r *redisSessionRepository) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return r.client.Del(ctx, r.key(id)).Err()
}

func encodeSession(s domain.Session) map[string]any {
	return map[string]any{
		fieldToken:               s.Token,
		fieldRole:                string(s.Role),
		fieldHasProfile:          strconv.FormatBool(s.HasProfile),
		fieldIsTemporaryPassword: strconv.FormatBool(s.IsTemporaryPassword),
	}
}

func decodeSession(vals map[string]string) domain.Session {
	token := vals[fieldToken]
	if token == "" {
		return domain.Session{}
	}
	return domain.Session{
		Token:               token,
		Role:                domain.Role(vals[fieldRole]),
		HasProfile:          vals[fieldHasProfile] == "true",
		IsTemporaryPassword: vals[fieldIsTemporaryPassword] == "true",
	}
}
