package memory

import (
	"sync"

	"github.com/hupe1980/skillmesh/core"
)

// ShortTermBuffer holds the bounded in-process window of recent turns for one
// active session. Once the estimated token total exceeds the budget
// (max_context_tokens * token_warning_threshold) the oldest turns are evicted
// first; the most recent user turn is never evicted, so the model always sees
// the request it is answering.
type ShortTermBuffer struct {
	mu     sync.RWMutex
	budget int
	turns  []core.Turn
	tokens int
}

// NewShortTermBuffer creates a buffer with the given token budget. A budget
// of zero or less disables eviction.
func NewShortTermBuffer(budget int) *ShortTermBuffer {
	return &ShortTermBuffer{budget: budget}
}

// Append adds a turn and evicts oldest-first until the buffer is back under
// budget.
func (b *ShortTermBuffer) Append(turn core.Turn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = append(b.turns, turn)
	b.tokens += turn.TokenCount
	b.evictLocked()
}

func (b *ShortTermBuffer) evictLocked() {
	if b.budget <= 0 {
		return
	}
	lastUser := -1
	for i := len(b.turns) - 1; i >= 0; i-- {
		if b.turns[i].Role == core.RoleUser {
			lastUser = i
			break
		}
	}
	for b.tokens > b.budget && len(b.turns) > 1 {
		if lastUser == 0 {
			break
		}
		b.tokens -= b.turns[0].TokenCount
		b.turns = b.turns[1:]
		if lastUser > 0 {
			lastUser--
		}
	}
}

// Turns returns a defensive copy of the buffered window in order.
func (b *ShortTermBuffer) Turns() []core.Turn {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]core.Turn, len(b.turns))
	copy(out, b.turns)
	return out
}

// TokenCount returns the current estimated token total.
func (b *ShortTermBuffer) TokenCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tokens
}

// Len returns the number of buffered turns.
func (b *ShortTermBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.turns)
}
