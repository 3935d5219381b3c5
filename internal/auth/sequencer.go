package auth

import (
	"context"
	"sync"
)

// Ticket identifies one in-flight gate evaluation.
type Ticket struct {
	SessionID  string
	Navigation string
	seq        uint64
}

func (t Ticket) key() string {
	return t.SessionID + "\x00" + t.Navigation
}

type flight struct {
	seq    uint64
	path   string
	cancel context.CancelFunc
}

// Sequencer orders gate evaluations per navigating client: a session id plus the
// navigation id of one tab. Starting an evaluation supersedes that client's previous one;
// its context is cancelled and its result must be discarded. Other clients of the same
// session are never affected.
type Sequencer struct {
	mu      sync.Mutex
	next    uint64
	flights map[string]*flight
}

// NewSequencer creates an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{flights: make(map[string]*flight)}
}

// Begin registers a new evaluation of path and returns a context that is cancelled when
// a newer evaluation starts for the same session and navigation.
func (s *Sequencer) Begin(ctx context.Context, sessionID, navigation, path string) (context.Context, Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket := Ticket{SessionID: sessionID, Navigation: navigation}
	if prev, ok := s.flights[ticket.key()]; ok {
		prev.cancel()
	}

	s.next++
	ticket.seq = s.next
	fctx, cancel := context.WithCancel(ctx)
	s.flights[ticket.key()] = &flight{seq: ticket.seq, path: path, cancel: cancel}
	return fctx, ticket
}

// Finish ends the evaluation. It returns false when t was superseded, in which case the
// caller must drop its result without side effects; newer is then the path of the
// evaluation that replaced it, if that one is still running.
func (s *Sequencer) Finish(t Ticket) (newer string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, found := s.flights[t.key()]
	if !found {
		return "", false
	}
	if f.seq != t.seq {
		return f.path, false
	}
	f.cancel()
	delete(s.flights, t.key())
	return "", true
}
