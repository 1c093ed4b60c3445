package embedding

import "context"

// Embedder turns text into dense vectors. Document and query embeddings may
// use different task types on the provider side.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	Dimension() int
}
