package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-portal/internal/domain"
	"github.com/spec-kit/ticket-portal/internal/events"
	"github.com/spec-kit/ticket-portal/internal/repository"
)

func TestTerminator_EndDetachedOutlivesCallerButIsBounded(t *testing.T) {
	sessions := repository.NewMemorySessionRepository()
	_, err := sessions.Set(context.Background(), "s1", domain.FullPatch(userSession))
	require.NoError(t, err)

	hadDeadline := make(chan bool, 1)
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventSessionCleared, func(ctx context.Context, _ events.Event) error {
		_, ok := ctx.Deadline()
		hadDeadline <- ok
		// A stalled audit store.
		<-ctx.Done()
		return ctx.Err()
	})

	term := NewTerminator(sessions, nil, dispatcher, zap.NewNop())
	term.timeout = 50 * time.Millisecond

	caller, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	require.NoError(t, term.EndDetached(caller, "s1", domain.RoleUser, events.ReasonLogout, ""))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, <-hadDeadline)

	sess, err := sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, sess.Authenticated(), "cleared although the caller was gone")
}
