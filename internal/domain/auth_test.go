package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionPatch_Apply(t *testing.T) {
	base := Session{Token: "t1", Role: RoleUser, HasProfile: false, IsTemporaryPassword: true}
	cleared := false

	got := SessionPatch{IsTemporaryPassword: &cleared}.Apply(base)

	assert.Equal(t, Session{Token: "t1", Role: RoleUser}, got)
}

func TestSessionPatch_ApplyWithoutTokenYieldsZeroSession(t *testing.T) {
	yes := true
	got := SessionPatch{HasProfile: &yes}.Apply(Session{})

	assert.Equal(t, Session{}, got)
	assert.False(t, got.Authenticated())
}

func TestFullPatch(t *testing.T) {
	s := Session{Token: "t2", Role: RoleAdmin, HasProfile: true}
	p := FullPatch(s)

	assert.False(t, p.Empty())
	assert.Equal(t, s, p.Apply(Session{Token: "old", IsTemporaryPassword: true}))
	assert.True(t, SessionPatch{}.Empty())
}
