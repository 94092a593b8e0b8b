package memory

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashEmbedder is a deterministic, fully offline Embedder: each text becomes
// a bag-of-words vector where every token is hashed into one of Dim buckets.
// Similar texts share buckets and therefore score high under cosine
// similarity. It backs tests and the local-first deployment mode where no
// embedding provider is reachable.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder creates a HashEmbedder with the given dimensionality
// (defaults to 256 when non-positive).
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{Dim: dim}
}

// Embed implements Embedder.
func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.Dim)
		for _, token := range tokenize(text) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(token))
			vec[h.Sum32()%uint32(e.Dim)]++
		}
		out[i] = vec
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
