package cachedEmbedding

import (
	"context"
	"time"

	"github.com/akolanti/localrag/internal/rag/embedding"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Wrap caches query embeddings in memory. Document embeddings pass through.
func Wrap(next embedding.Embedder, size int, ttl time.Duration) embedding.Embedder {
	if next == nil || size <= 0 {
		return next
	}
	return &cachedEmbedder{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type cachedEmbedder struct {
	next  embedding.Embedder
	cache *expirable.LRU[string, []float32]
}

func (c *cachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.Embed(ctx, texts)
}

func (c *cachedEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if v, ok := c.cache.Get(query); ok {
		return v, nil
	}
	v, err := c.next.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache.Add(query, v)
	return v, nil
}

func (c *cachedEmbedder) Dimension() int {
	return c.next.Dimension()
}
