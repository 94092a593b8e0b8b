package openai

import (
	"context"

	"github.com/openai/openai-go"
)

// EmbedderOptions configure the OpenAI embedding adapter.
type EmbedderOptions struct {
	Model string
}

// Embedder implements memory.Embedder using the OpenAI Embeddings API. A
// single Embed call maps to one batched API request, which keeps concurrent
// long-term memory writes within provider rate limits.
type Embedder struct {
	client *openai.Client
	opts   EmbedderOptions
}

// NewEmbedder creates an Embedder from an existing client.
func NewEmbedder(client *openai.Client, optFns ...func(o *EmbedderOptions)) *Embedder {
	opts := EmbedderOptions{Model: openai.EmbeddingModelTextEmbedding3Small}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Embedder{client: client, opts: opts}
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.opts.Model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, classify(err)
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}
	return vectors, nil
}
