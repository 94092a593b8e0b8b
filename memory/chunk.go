package memory

import (
	"github.com/hupe1980/skillmesh/core"
)

// Chunk is one overlapping slice of a source document. Start and End are rune
// offsets into the original text, End exclusive.
type Chunk struct {
	Start int
	End   int
	Text  string
}

// SplitChunks splits text into overlapping chunks of size runes advancing by
// size-overlap per step. Every rune index of the input is covered by at least
// one chunk; overlap must be smaller than size. An empty input yields no
// chunks.
func SplitChunks(text string, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, core.NewConfigurationError("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, core.NewConfigurationError("chunk overlap must be in [0, size), got %d for size %d", overlap, size)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := size - overlap
	var chunks []Chunk
	for start := 0; ; start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{Start: start, End: end, Text: string(runes[start:end])})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
