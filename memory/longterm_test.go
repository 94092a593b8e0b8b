package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns fixed vectors per text and records call batches.
type stubEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	batches [][]string
}

func newStubEmbedder(vectors map[string][]float32) *stubEmbedder {
	return &stubEmbedder{vectors: vectors}
}

func (e *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches = append(e.batches, texts)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := e.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func (e *stubEmbedder) batchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.batches)
}

func newTestStore(t *testing.T, embedder Embedder) *SemanticStore {
	t.Helper()
	store, err := NewSemanticStore(embedder, func(o *SemanticStoreOptions) {
		o.ChunkSize = 1000
		o.ChunkOverlap = 0
	})
	require.NoError(t, err)
	return store
}

func TestSemanticStoreSearchRanking(t *testing.T) {
	embedder := newStubEmbedder(map[string][]float32{
		"exact match":  {1, 0, 0},
		"close match":  {0.9, 0.1, 0},
		"unrelated":    {0, 1, 0},
		"query vector": {1, 0, 0},
	})
	store := newTestStore(t, embedder)

	ctx := context.Background()
	for _, doc := range []string{"unrelated", "close match", "exact match"} {
		_, err := store.Add(ctx, doc, nil)
		require.NoError(t, err)
	}

	entries, err := store.Search(ctx, "query vector", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "exact match", entries[0].Content)
	assert.Equal(t, "close match", entries[1].Content)
	assert.Greater(t, entries[0].Score, entries[1].Score)
}

func TestSemanticStoreTieBreakMostRecentFirst(t *testing.T) {
	embedder := newStubEmbedder(map[string][]float32{
		"older":        {1, 0, 0},
		"newer":        {1, 0, 0},
		"query vector": {1, 0, 0},
	})
	store := newTestStore(t, embedder)

	ctx := context.Background()
	_, err := store.Add(ctx, "older", nil)
	require.NoError(t, err)
	_, err = store.Add(ctx, "newer", nil)
	require.NoError(t, err)

	entries, err := store.Search(ctx, "query vector", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "newer", entries[0].Content)
	assert.Equal(t, "older", entries[1].Content)
}

func TestSemanticStoreAddBatchesChunks(t *testing.T) {
	embedder := newStubEmbedder(nil)
	store, err := NewSemanticStore(embedder, func(o *SemanticStoreOptions) {
		o.ChunkSize = 10
		o.ChunkOverlap = 2
	})
	require.NoError(t, err)

	id, err := store.Add(context.Background(), "this document is long enough to produce several chunks", nil)
	require.NoError(t, err)
	assert.Equal(t, "mem_0", id)

	// All chunks of one document go through a single embedding call.
	require.Equal(t, 1, embedder.batchCount())
	assert.Greater(t, store.Len(), 1)
	assert.Len(t, embedder.batches[0], store.Len())
}

func TestSemanticStoreEmptyDocument(t *testing.T) {
	embedder := newStubEmbedder(nil)
	store := newTestStore(t, embedder)

	id, err := store.Add(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Zero(t, store.Len())
	assert.Zero(t, embedder.batchCount())
}

func TestSemanticStoreClear(t *testing.T) {
	embedder := newStubEmbedder(nil)
	store := newTestStore(t, embedder)

	ctx := context.Background()
	_, err := store.Add(ctx, "something to remember", nil)
	require.NoError(t, err)
	require.Positive(t, store.Len())

	require.NoError(t, store.Clear(ctx))
	assert.Zero(t, store.Len())

	entries, err := store.Search(ctx, "something", 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSemanticStoreConcurrentAdds(t *testing.T) {
	embedder := newStubEmbedder(nil)
	store := newTestStore(t, embedder)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Add(context.Background(), "concurrent fact", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, store.Len())
	assert.Equal(t, 10, embedder.batchCount())
}

func TestSemanticStoreMetadataIsolated(t *testing.T) {
	embedder := newStubEmbedder(map[string][]float32{
		"fact":  {1, 0, 0},
		"query": {1, 0, 0},
	})
	store := newTestStore(t, embedder)

	meta := map[string]string{"source": "test"}
	_, err := store.Add(context.Background(), "fact", meta)
	require.NoError(t, err)
	meta["source"] = "mutated"

	entries, err := store.Search(context.Background(), "query", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "test", entries[0].Metadata["source"])
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)

	a, err := e.Embed(context.Background(), []string{"the quick brown fox"})
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), []string{"the quick brown fox"})
	require.NoError(t, err)
	require.Len(t, a, 1)
	assert.Equal(t, a[0], b[0])
	assert.Len(t, a[0], 64)
}

func TestHashEmbedderSimilarTextsCloser(t *testing.T) {
	e := NewHashEmbedder(128)
	vectors, err := e.Embed(context.Background(), []string{
		"the capital of france is paris",
		"paris is the capital of france",
		"quantum entanglement experiment",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	same := cosineSimilarity(vectors[0], vectors[1])
	diff := cosineSimilarity(vectors[0], vectors[2])
	assert.Greater(t, same, diff)
}
