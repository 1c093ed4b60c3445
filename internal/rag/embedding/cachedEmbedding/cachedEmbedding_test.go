package cachedEmbedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	queries int
	docs    int
	err     error
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	c.docs++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedQuery(_ context.Context, q string) ([]float32, error) {
	c.queries++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(q))}, nil
}

func (c *countingEmbedder) Dimension() int { return 1 }

func TestWrap_CachesQueries(t *testing.T) {
	inner := &countingEmbedder{}
	e := Wrap(inner, 8, time.Minute)
	ctx := context.Background()

	v1, err := e.EmbedQuery(ctx, "hello")
	require.NoError(t, err)
	v2, err := e.EmbedQuery(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.queries)

	_, err = e.EmbedQuery(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.queries)

	_, err = e.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)
	_, err = e.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.docs, "document embeddings are never cached")
	assert.Equal(t, 1, e.Dimension())
}

func TestWrap_ErrorsAreNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("quota")}
	e := Wrap(inner, 8, time.Minute)

	_, err := e.EmbedQuery(context.Background(), "q")
	require.Error(t, err)
	inner.err = nil
	_, err = e.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.queries)
}

func TestWrap_Disabled(t *testing.T) {
	inner := &countingEmbedder{}
	assert.Same(t, inner, Wrap(inner, 0, time.Minute))
	assert.Nil(t, Wrap(nil, 8, time.Minute))
}
