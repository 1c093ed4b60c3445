package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/akolanti/localrag/internal/metrics"
	"github.com/akolanti/localrag/internal/rag/embedding"
	"github.com/akolanti/localrag/internal/rag/ingest"
	"github.com/akolanti/localrag/internal/rag/metadata"
	"github.com/akolanti/localrag/internal/rag/vectorDB"
	"github.com/akolanti/localrag/pkg/logger_i"
)

var logger = logger_i.NewLogger("Indexer")

type Extractor interface {
	Extract(ctx context.Context, path string, method commonModels.ExtractionMethod, force bool) (*commonModels.ExtractedDocument, error)
}

type Options struct {
	ChunkSize          int
	ChunkOverlap       int
	MaxChunksPerDoc    int
	MaxConcurrentFiles int
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:          config.DefaultChunkSize,
		ChunkOverlap:       config.DefaultChunkOverlap,
		MaxChunksPerDoc:    config.DefaultMaxChunksPerDoc,
		MaxConcurrentFiles: config.DefaultMaxConcurrentFiles,
	}
}

// Indexer keeps a document's vectors and its metadata record in step.
// The record is only written once the vectors are in place, so a crash in
// between leaves the file looking unindexed and the next run redoes it.
type Indexer struct {
	meta      metadata.MetadataStore
	cache     metadata.PageCache
	vectors   vectorDB.VectorIndex
	embedder  embedding.Embedder
	extractor Extractor
	opts      Options
}

func New(meta metadata.MetadataStore, cache metadata.PageCache, vectors vectorDB.VectorIndex, embedder embedding.Embedder, extractor Extractor, opts Options) *Indexer {
	def := DefaultOptions()
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = opts.ChunkSize / 10
	}
	if opts.MaxChunksPerDoc <= 0 {
		opts.MaxChunksPerDoc = def.MaxChunksPerDoc
	}
	if opts.MaxConcurrentFiles <= 0 {
		opts.MaxConcurrentFiles = def.MaxConcurrentFiles
	}
	return &Indexer{
		meta:      meta,
		cache:     cache,
		vectors:   vectors,
		embedder:  embedder,
		extractor: extractor,
		opts:      opts,
	}
}

// Index brings one file up to date in a collection. Failures are reported in
// the result, never returned, so a batch can carry on.
func (ix *Indexer) Index(ctx context.Context, path string, collection string, force bool, method commonModels.ExtractionMethod) commonModels.FileIndexResult {
	path = expandHome(path)
	name := filepath.Base(path)
	log := logger.WithTrace(ctx).With("file", name, "collection", collection)
	result := commonModels.FileIndexResult{FilePath: path}

	if _, err := os.Stat(path); err != nil {
		result.Message = "File not found"
		metrics.CaptureDocumentIndexed("failed")
		return result
	}
	if commonModels.GetDocType(path) == commonModels.ERR {
		result.Message = "Unsupported file type: " + filepath.Ext(path)
		metrics.CaptureDocumentIndexed("failed")
		return result
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return ix.fail(log, result, fmt.Sprintf("Indexing failed for %s: %v", name, err))
	}
	docId := ingest.MakeDocId(collection, absPath)
	mtime, err := ingest.FileMtime(absPath)
	if err != nil {
		return ix.fail(log, result, fmt.Sprintf("Indexing failed for %s: %v", name, err))
	}

	if !force {
		skipped, err := ix.unchanged(ctx, log, absPath, collection, mtime)
		if err != nil {
			return ix.fail(log, result, fmt.Sprintf("Indexing failed for %s: %v", name, err))
		}
		if skipped {
			log.Info("Skipped (unchanged)")
			metrics.CaptureDocumentIndexed("skipped")
			result.Success = true
			result.Skipped = true
			return result
		}
	}

	log.Info("Indexing")
	start := time.Now()

	doc, err := ix.extractor.Extract(ctx, absPath, method, force)
	if err != nil {
		var failure *ragErrors.ExtractionFailure
		if errors.As(err, &failure) {
			return ix.fail(log, result, failure.Error())
		}
		return ix.fail(log, result, fmt.Sprintf("Extraction failed for %s: %v", name, err))
	}

	count, err := ix.replace(ctx, log, doc, docId, collection, mtime)
	if errors.Is(err, ragErrors.ErrEmptyContent) {
		return ix.fail(log, result, "No content extracted from: "+name)
	}
	if err != nil {
		return ix.fail(log, result, fmt.Sprintf("Indexing failed for %s: %v", name, err))
	}

	// the cache has served its purpose once the document is durable
	if n, err := ix.cache.Clear(ctx, doc.ContentHash); err != nil {
		log.Warn("Failed to clear page cache", "error", err)
	} else if n > 0 {
		log.Debug("Cleared page cache", "pages", n)
	}

	metrics.CaptureExecutionMetrics("document_index", time.Since(start))
	metrics.CaptureDocumentIndexed("indexed")
	log.Info("Indexed", "chunks", count)
	result.Success = true
	result.ChunkCount = count
	return result
}

// unchanged reports whether the stored record still matches the file. A
// touched file whose bytes are identical only gets its mtime refreshed.
func (ix *Indexer) unchanged(ctx context.Context, log *logger_i.Logger, absPath string, collection string, mtime float64) (bool, error) {
	existing, err := ix.meta.GetDocumentByPath(ctx, absPath, collection)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	present, err := ix.hasChunks(ctx, existing)
	if err != nil {
		return false, err
	}
	if !present {
		log.Warn("Record has no chunks in the vector index, re-indexing", "expected", existing.ChunkCount)
		return false, nil
	}
	if existing.FileMtime == mtime {
		return true, nil
	}
	hash, err := ingest.ComputeFileHash(absPath)
	if err != nil {
		return false, err
	}
	if hash != existing.FileHash {
		return false, nil
	}
	log.Debug("Content unchanged, updating mtime")
	return true, ix.meta.UpdateDocumentMtime(ctx, existing.DocId, mtime)
}

// hasChunks checks the vector index still holds what the record claims. The
// two stores can drift when the vector index is replaced or wiped.
func (ix *Indexer) hasChunks(ctx context.Context, doc *commonModels.DocumentRecord) (bool, error) {
	if doc.ChunkCount == 0 {
		return true, nil
	}
	n, err := ix.vectors.CountByDocId(ctx, doc.DocId)
	if err != nil {
		return false, fmt.Errorf("count chunks: %w", err)
	}
	return n > 0, nil
}

// replace swaps the document's chunks and then commits its record.
func (ix *Indexer) replace(ctx context.Context, log *logger_i.Logger, doc *commonModels.ExtractedDocument, docId string, collection string, mtime float64) (int, error) {
	chunks := ingest.Chunk(doc.Content, ix.opts.ChunkSize, ix.opts.ChunkOverlap)
	if len(chunks) == 0 {
		return 0, ragErrors.ErrEmptyContent
	}
	if len(chunks) > ix.opts.MaxChunksPerDoc {
		log.Warn("Too many chunks, truncating", "chunks", len(chunks), "limit", ix.opts.MaxChunksPerDoc)
		chunks = chunks[:ix.opts.MaxChunksPerDoc]
	}
	log.Info("Chunked, embedding", "chunks", len(chunks))

	vectors, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embedding: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	// leftovers from an interrupted run share the doc id
	if _, err := ix.vectors.DeleteByDocId(ctx, docId); err != nil {
		return 0, ragErrors.Storage("delete old chunks", err)
	}
	if err := ix.vectors.Upsert(ctx, chunks, vectors, docId, doc.Path, collection); err != nil {
		return 0, ragErrors.Storage("insert chunks", err)
	}

	err = ix.meta.UpsertDocument(ctx, commonModels.DocumentRecord{
		DocId:      docId,
		FilePath:   doc.Path,
		FileHash:   doc.ContentHash,
		FileMtime:  mtime,
		DocType:    doc.DocType,
		Collection: collection,
		ChunkCount: len(chunks),
		IndexedAt:  time.Now().UTC(),
	})
	if err != nil {
		return 0, ragErrors.Storage("commit document record", err)
	}
	return len(chunks), nil
}

func (ix *Indexer) fail(log *logger_i.Logger, result commonModels.FileIndexResult, message string) commonModels.FileIndexResult {
	log.Error("Indexing failed", "reason", message)
	metrics.CaptureDocumentIndexed("failed")
	result.Success = false
	result.Message = message
	return result
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
