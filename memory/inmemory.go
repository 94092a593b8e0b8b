package memory

import (
	"context"
	"sync"

	"github.com/hupe1980/skillmesh/core"
)

// InMemorySessionStore is a volatile SessionStore keeping transcripts in a
// process-local map. Safe for concurrent access; best suited for tests and
// ephemeral single-run sessions. Sessions are created lazily on first append
// or read.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Transcript
}

// NewInMemorySessionStore constructs an empty in-memory session store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]*core.Transcript)}
}

// Append adds a turn to the session's transcript, creating it if needed.
func (s *InMemorySessionStore) Append(_ context.Context, sessionID string, turn core.Turn) error {
	s.transcript(sessionID).Append(turn)
	return nil
}

// Turns returns a copy of the session's full turn log in append order.
func (s *InMemorySessionStore) Turns(_ context.Context, sessionID string) ([]core.Turn, error) {
	s.mu.RLock()
	t, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return t.Turns(), nil
}

// Clear removes the session's transcript entirely.
func (s *InMemorySessionStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemorySessionStore) transcript(sessionID string) *core.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.sessions[sessionID]
	if !ok {
		t = core.NewTranscript(sessionID)
		s.sessions[sessionID] = t
	}
	return t
}
