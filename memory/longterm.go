package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/skillmesh/logging"
)

// SemanticStoreOptions configure chunking and retrieval behavior.
type SemanticStoreOptions struct {
	ChunkSize    int
	ChunkOverlap int
	Logger       logging.Logger
}

type storedEntry struct {
	Entry
	seq    int
	vector []float32
}

// SemanticStore implements LongTermStore over an Embedder. Documents are
// split into overlapping chunks and embedded in one batched provider call per
// Add. Writes hold the write lock for their full duration, which both
// serializes mutations and queues concurrent Add calls instead of fanning
// them out against the rate-limited embedding backend. Reads are concurrent.
type SemanticStore struct {
	embedder Embedder
	opts     SemanticStoreOptions

	mu      sync.RWMutex
	entries []storedEntry
	nextSeq int
}

// NewSemanticStore creates a store over the given embedder. Chunking
// parameters are validated eagerly so misconfiguration fails at startup.
func NewSemanticStore(embedder Embedder, optFns ...func(o *SemanticStoreOptions)) (*SemanticStore, error) {
	opts := SemanticStoreOptions{ChunkSize: 800, ChunkOverlap: 200, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if _, err := SplitChunks("x", opts.ChunkSize, opts.ChunkOverlap); err != nil {
		return nil, err
	}
	return &SemanticStore{embedder: embedder, opts: opts}, nil
}

// Add implements LongTermStore.
func (s *SemanticStore) Add(ctx context.Context, content string, metadata map[string]string) (string, error) {
	chunks, err := SplitChunks(content, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("embed document: %w", err)
	}
	if len(vectors) != len(chunks) {
		return "", fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	now := time.Now().UTC()
	firstID := ""
	for i, c := range chunks {
		id := fmt.Sprintf("mem_%d", s.nextSeq)
		if i == 0 {
			firstID = id
		}
		s.entries = append(s.entries, storedEntry{
			Entry: Entry{
				ID:        id,
				Content:   c.Text,
				Metadata:  cloneMetadata(metadata),
				CreatedAt: now,
			},
			seq:    s.nextSeq,
			vector: vectors[i],
		})
		s.nextSeq++
	}

	s.opts.Logger.Debug("memory.longterm.added", "chunks", len(chunks), "first_id", firstID)
	return firstID, nil
}

// Search implements LongTermStore: results are ordered by descending cosine
// similarity, ties broken by most-recent-first insertion.
func (s *SemanticStore) Search(ctx context.Context, query string, topK int) ([]Entry, error) {
	if topK <= 0 || query == "" {
		return nil, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for query", len(vectors))
	}
	qv := vectors[0]

	s.mu.RLock()
	scored := make([]storedEntry, 0, len(s.entries))
	for _, e := range s.entries {
		e.Score = cosineSimilarity(qv, e.vector)
		scored = append(scored, e)
	}
	s.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].seq > scored[j].seq
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	out := make([]Entry, len(scored))
	for i, e := range scored {
		out[i] = e.Entry
	}
	return out, nil
}

// Clear implements LongTermStore, removing all entries in one bulk operation.
func (s *SemanticStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// Len returns the number of stored chunks.
func (s *SemanticStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func cloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
