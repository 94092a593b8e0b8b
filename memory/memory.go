package memory

import (
	"context"
	"time"

	"github.com/hupe1980/skillmesh/core"
)

// SessionStore persists the append-only turn log of each session. Appended
// turns are never reordered or rewritten; replaying the log reconstructs an
// identical transcript. Clear is the only removal operation and is always
// explicit, never triggered by the orchestration loop.
type SessionStore interface {
	Append(ctx context.Context, sessionID string, turn core.Turn) error
	Turns(ctx context.Context, sessionID string) ([]core.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

// Entry is a long-term memory record returned by semantic search.
type Entry struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Score     float64           `json:"score"`
	CreatedAt time.Time         `json:"created_at"`
}

// LongTermStore is the semantic/vector-indexed knowledge tier, independent of
// any single session. Entries are append-only; Clear is the only removal
// operation.
type LongTermStore interface {
	// Add chunks, embeds and stores a document, returning the id of the
	// first stored chunk.
	Add(ctx context.Context, content string, metadata map[string]string) (string, error)

	// Search returns up to topK entries ranked by descending similarity,
	// ties broken most-recent-first.
	Search(ctx context.Context, query string, topK int) ([]Entry, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error
}

// Embedder is the external embedding provider boundary. One call embeds a
// whole batch so callers can coalesce concurrent work instead of fanning out
// unbounded requests against a rate-limited backend.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
