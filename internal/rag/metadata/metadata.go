package metadata

import (
	"context"

	"github.com/akolanti/localrag/internal/domain/commonModels"
)

// PageCache maps (content hash, page index) to converted page text.
// Implementations serialise same-key writes themselves.
type PageCache interface {
	Get(ctx context.Context, contentHash string, pageIndex int) (string, bool, error)
	Put(ctx context.Context, contentHash string, pageIndex int, text string) error
	Clear(ctx context.Context, contentHash string) (int, error)
	ClearForCollection(ctx context.Context, collection string) (int, error)
}

type CollectionStore interface {
	// CreateCollection reports false when the collection already existed.
	CreateCollection(ctx context.Context, name string) (bool, error)
	CollectionExists(ctx context.Context, name string) (bool, error)
	GetCollection(ctx context.Context, name string) (*commonModels.Collection, error)
	ListCollections(ctx context.Context) ([]commonModels.Collection, error)
	DeleteCollection(ctx context.Context, name string) error
}

type DocumentStore interface {
	GetDocumentByPath(ctx context.Context, path string, collection string) (*commonModels.DocumentRecord, error)
	UpsertDocument(ctx context.Context, doc commonModels.DocumentRecord) error
	UpdateDocumentMtime(ctx context.Context, docId string, mtime float64) error
	DeleteDocument(ctx context.Context, docId string) error
	ListDocuments(ctx context.Context, collection string) ([]commonModels.DocumentRecord, error)
	// ListContentHashes returns the file hashes referenced by a collection's documents.
	ListContentHashes(ctx context.Context, collection string) ([]string, error)
}

type Store interface {
	CollectionStore
	DocumentStore
	PageCache
}

// MetadataStore is the durable record side, without the page cache.
type MetadataStore interface {
	CollectionStore
	DocumentStore
}
