package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencer_NewerNavigationSupersedes(t *testing.T) {
	seq := NewSequencer()

	ctxA, ticketA := seq.Begin(context.Background(), "s1", "tab-1", "/home")
	ctxB, ticketB := seq.Begin(context.Background(), "s1", "tab-1", "/admin")

	assert.Error(t, ctxA.Err(), "older flight is cancelled")
	assert.NoError(t, ctxB.Err())

	newer, ok := seq.Finish(ticketA)
	assert.False(t, ok)
	assert.Equal(t, "/admin", newer)
	assert.Len(t, seq.flights, 1)

	_, ok = seq.Finish(ticketB)
	assert.True(t, ok)
	assert.Empty(t, seq.flights)

	// Finishing twice, or after the flight is gone, is a no-op.
	_, ok = seq.Finish(ticketB)
	assert.False(t, ok)
	newer, ok = seq.Finish(ticketA)
	assert.False(t, ok)
	assert.Empty(t, newer)
}

func TestSequencer_ClientsAreIndependent(t *testing.T) {
	seq := NewSequencer()

	ctx1, t1 := seq.Begin(context.Background(), "s1", "tab-1", "/home")
	ctx2, t2 := seq.Begin(context.Background(), "s1", "tab-2", "/admin")
	ctx3, t3 := seq.Begin(context.Background(), "s2", "tab-1", "/home")

	assert.NoError(t, ctx1.Err())
	assert.NoError(t, ctx2.Err())
	assert.NoError(t, ctx3.Err())
	assert.Len(t, seq.flights, 3)

	for _, ticket := range []Ticket{t1, t2, t3} {
		_, ok := seq.Finish(ticket)
		assert.True(t, ok)
	}
}

func TestSequencer_ParentCancellationPropagates(t *testing.T) {
	seq := NewSequencer()
	parent, cancel := context.WithCancel(context.Background())

	ctx, ticket := seq.Begin(parent, "s1", "tab-1", "/home")
	cancel()

	assert.Error(t, ctx.Err())
	_, ok := seq.Finish(ticket)
	assert.True(t, ok, "a cancelled caller is not a superseded one")
}
