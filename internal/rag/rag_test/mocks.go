package rag_test

import (
	"context"

	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/rag/vectorDB"
)

// MockVectorIndex implements vectorDB.VectorIndex
type MockVectorIndex struct {
	OnQuery             func(ctx context.Context, vector []float32, topK int, filter vectorDB.Filter) ([]commonModels.SearchResult, error)
	OnCountByCollection func(ctx context.Context, collection string) (int, error)
	OnCountByDocId      func(ctx context.Context, docId string) (int, error)
	OnGetDocumentChunks func(ctx context.Context, docId string) ([]commonModels.ChunkRecord, error)
}

func (m *MockVectorIndex) EnsureCollection(ctx context.Context) error {
	return nil
}

func (m *MockVectorIndex) Upsert(ctx context.Context, chunks []string, vectors [][]float32, docId string, filePath string, collection string) error {
	return nil
}

func (m *MockVectorIndex) DeleteByDocId(ctx context.Context, docId string) (int, error) {
	return 0, nil
}

func (m *MockVectorIndex) DeleteByCollection(ctx context.Context, collection string) (int, error) {
	return 0, nil
}

func (m *MockVectorIndex) Query(ctx context.Context, vector []float32, topK int, filter vectorDB.Filter) ([]commonModels.SearchResult, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, vector, topK, filter)
	}
	return []commonModels.SearchResult{{ChunkRecord: commonModels.ChunkRecord{Text: "default context"}, Score: 0.5}}, nil
}

func (m *MockVectorIndex) CountByCollection(ctx context.Context, collection string) (int, error) {
	if m.OnCountByCollection != nil {
		return m.OnCountByCollection(ctx, collection)
	}
	return 0, nil
}

func (m *MockVectorIndex) CountByDocId(ctx context.Context, docId string) (int, error) {
	if m.OnCountByDocId != nil {
		return m.OnCountByDocId(ctx, docId)
	}
	return 0, nil
}

func (m *MockVectorIndex) GetDocumentChunks(ctx context.Context, docId string) ([]commonModels.ChunkRecord, error) {
	if m.OnGetDocumentChunks != nil {
		return m.OnGetDocumentChunks(ctx, docId)
	}
	return nil, nil
}

type MockEmbedder struct {
	OnEmbedQuery func(ctx context.Context, query string) ([]float32, error)
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	// Return dummy vectors matching chunk count
	return make([][]float32, len(texts)), nil
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, query)
	}
	return []float32{0.1}, nil
}

func (m *MockEmbedder) Dimension() int {
	return 1
}

// MockIndexer implements rag.Indexer
type MockIndexer struct {
	OnIndexFiles       func(ctx context.Context, paths []string, collection string, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error)
	OnIndexDirectory   func(ctx context.Context, dir string, collection string, glob string, recursive bool, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error)
	OnRemoveDocuments  func(ctx context.Context, paths []string, collection string) (commonModels.BatchResult, error)
	OnDeleteCollection func(ctx context.Context, name string) (int, error)
}

func (m *MockIndexer) IndexFiles(ctx context.Context, paths []string, collection string, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error) {
	if m.OnIndexFiles != nil {
		return m.OnIndexFiles(ctx, paths, collection, force, method)
	}
	return okBatch(paths), nil
}

func (m *MockIndexer) IndexDirectory(ctx context.Context, dir string, collection string, glob string, recursive bool, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error) {
	if m.OnIndexDirectory != nil {
		return m.OnIndexDirectory(ctx, dir, collection, glob, recursive, force, method)
	}
	return okBatch([]string{dir}), nil
}

func (m *MockIndexer) RemoveDocuments(ctx context.Context, paths []string, collection string) (commonModels.BatchResult, error) {
	if m.OnRemoveDocuments != nil {
		return m.OnRemoveDocuments(ctx, paths, collection)
	}
	return okBatch(paths), nil
}

func (m *MockIndexer) DeleteCollection(ctx context.Context, name string) (int, error) {
	if m.OnDeleteCollection != nil {
		return m.OnDeleteCollection(ctx, name)
	}
	return 0, nil
}

func okBatch(paths []string) commonModels.BatchResult {
	results := make([]commonModels.FileIndexResult, len(paths))
	for i, p := range paths {
		results[i] = commonModels.FileIndexResult{FilePath: p, Success: true}
	}
	return commonModels.NewBatchResult(results)
}
