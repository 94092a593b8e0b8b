package core

import (
	"sync"
	"time"
)

// Transcript is the ordered turn history of one session. Turns are totally
// ordered by append sequence and are never reordered or rewritten after being
// appended. Safe for concurrent access.
type Transcript struct {
	SessionID string    `json:"session_id"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`

	mu    sync.RWMutex
	turns []Turn
}

// NewTranscript creates an empty transcript for the given session.
func NewTranscript(sessionID string) *Transcript {
	now := time.Now().UTC()
	return &Transcript{SessionID: sessionID, Created: now, Updated: now}
}

// Append adds a turn to the end of the history.
func (t *Transcript) Append(turn Turn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, turn)
	t.Updated = time.Now().UTC()
}

// Turns returns a defensive copy of the full turn slice so callers cannot
// mutate internal state.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of appended turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}

// LastUserTurn returns the most recently appended user turn, if any.
func (t *Transcript) LastUserTurn() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.turns) - 1; i >= 0; i-- {
		if t.turns[i].Role == RoleUser {
			return t.turns[i], true
		}
	}
	return Turn{}, false
}
