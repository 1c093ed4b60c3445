package qdrantDB

import (
	"testing"

	"github.com/akolanti/localrag/internal/rag/vectorDB"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointId_Deterministic(t *testing.T) {
	a := PointId("doc-1", 0)
	assert.Equal(t, a, PointId("doc-1", 0))
	assert.NotEqual(t, a, PointId("doc-1", 1))
	assert.NotEqual(t, a, PointId("doc-2", 0))
	assert.Len(t, a, 36)
}

func TestToQdrantFilter(t *testing.T) {
	assert.Nil(t, toQdrantFilter(vectorDB.Filter{}))

	f := toQdrantFilter(vectorDB.Filter{Collection: "papers"})
	require.NotNil(t, f)
	require.Len(t, f.Must, 1)
	assert.Equal(t, fieldCollection, f.Must[0].GetField().GetKey())
	assert.Equal(t, "papers", f.Must[0].GetField().GetMatch().GetKeyword())

	f = toQdrantFilter(vectorDB.Filter{Collection: "papers", DocIds: []string{"a", "b"}})
	require.Len(t, f.Must, 2)
	assert.Equal(t, []string{"a", "b"}, f.Must[1].GetField().GetMatch().GetKeywords().GetStrings())
}

func TestToChunk(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		fieldText:       "hello",
		fieldDocId:      "d1",
		fieldFilePath:   "/a.pdf",
		fieldCollection: "papers",
		fieldChunkIndex: 3,
	})
	c := toChunk(payload)
	assert.Equal(t, "hello", c.Text)
	assert.Equal(t, "d1", c.DocId)
	assert.Equal(t, "/a.pdf", c.FilePath)
	assert.Equal(t, "papers", c.Collection)
	assert.Equal(t, 3, c.ChunkIndex)

	assert.Zero(t, toChunk(nil).ChunkIndex)
}
