package vectorDB

import (
	"context"

	"github.com/akolanti/localrag/internal/domain/commonModels"
)

// Filter narrows a query. Empty fields match everything.
type Filter struct {
	Collection string
	DocIds     []string
}

// VectorIndex stores every chunk of every collection, tagged by payload.
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, chunks []string, vectors [][]float32, docId string, filePath string, collection string) error
	// DeleteByDocId reports how many chunks were removed.
	DeleteByDocId(ctx context.Context, docId string) (int, error)
	DeleteByCollection(ctx context.Context, collection string) (int, error)
	Query(ctx context.Context, vector []float32, topK int, filter Filter) ([]commonModels.SearchResult, error)
	CountByCollection(ctx context.Context, collection string) (int, error)
	CountByDocId(ctx context.Context, docId string) (int, error)
	// GetDocumentChunks returns a document's chunks ordered by chunk index.
	GetDocumentChunks(ctx context.Context, docId string) ([]commonModels.ChunkRecord, error)
}
