package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/jobModel"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/akolanti/localrag/internal/metrics"
	"github.com/akolanti/localrag/internal/rag/embedding"
	"github.com/akolanti/localrag/internal/rag/metadata"
	"github.com/akolanti/localrag/internal/rag/vectorDB"
	"github.com/akolanti/localrag/pkg/logger_i"
)

/*
Service is the only thing the surfaces (MCP tools, HTTP handlers, index
workers) talk to. The private service struct holds the stores and clients, so
none of them leak into the transport code and tests can swap any of them.
*/
type Service interface {
	CreateCollection(ctx context.Context, name string) error
	DeleteCollection(ctx context.Context, name string) (int, error)
	ListCollections(ctx context.Context) ([]commonModels.Collection, error)
	GetCollectionInfo(ctx context.Context, name string) (*commonModels.CollectionInfo, error)

	IndexFiles(ctx context.Context, paths []string, collection string, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error)
	IndexDirectory(ctx context.Context, dir string, collection string, glob string, recursive bool, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error)
	RemoveDocuments(ctx context.Context, paths []string, collection string) (commonModels.BatchResult, error)
	ListDocuments(ctx context.Context, collection string) ([]commonModels.DocumentSummary, error)
	GetDocumentContent(ctx context.Context, path string, collection string) ([]string, error)

	Search(ctx context.Context, query string, topK int) ([]commonModels.SearchResult, error)
	SearchCollection(ctx context.Context, query string, collection string, topK int) ([]commonModels.SearchResult, error)

	ProcessIndexJob(ctx context.Context, job jobModel.Job) jobModel.Job
}

// Indexer is the write path the service delegates to.
type Indexer interface {
	IndexFiles(ctx context.Context, paths []string, collection string, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error)
	IndexDirectory(ctx context.Context, dir string, collection string, glob string, recursive bool, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error)
	RemoveDocuments(ctx context.Context, paths []string, collection string) (commonModels.BatchResult, error)
	DeleteCollection(ctx context.Context, name string) (int, error)
}

type service struct {
	meta     metadata.MetadataStore
	vectors  vectorDB.VectorIndex
	embedder embedding.Embedder
	indexer  Indexer
	logger   *logger_i.Logger
}

func NewService(meta metadata.MetadataStore, vectors vectorDB.VectorIndex, em embedding.Embedder, ix Indexer) Service {
	return &service{
		meta:     meta,
		vectors:  vectors,
		embedder: em,
		indexer:  ix,
		logger:   logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) CreateCollection(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ragErrors.ErrInvalidCollectionName
	}
	created, err := s.meta.CreateCollection(ctx, name)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("%w: '%s'", ragErrors.ErrCollectionAlreadyExists, name)
	}
	s.logger.WithTrace(ctx).Info("Created collection", "collection", name)
	return nil
}

func (s *service) DeleteCollection(ctx context.Context, name string) (int, error) {
	return s.indexer.DeleteCollection(ctx, name)
}

func (s *service) ListCollections(ctx context.Context) ([]commonModels.Collection, error) {
	return s.meta.ListCollections(ctx)
}

func (s *service) GetCollectionInfo(ctx context.Context, name string) (*commonModels.CollectionInfo, error) {
	coll, err := s.meta.GetCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if coll == nil {
		return nil, collectionNotFound(name)
	}
	chunks, err := s.vectors.CountByCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	docs, err := s.ListDocuments(ctx, name)
	if err != nil {
		return nil, err
	}
	return &commonModels.CollectionInfo{
		Name:          coll.Name,
		CreatedAt:     coll.CreatedAt,
		DocumentCount: coll.DocumentCount,
		ChunkCount:    chunks,
		Documents:     docs,
	}, nil
}

func (s *service) IndexFiles(ctx context.Context, paths []string, collection string, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error) {
	if len(paths) == 0 {
		return commonModels.BatchResult{Results: []commonModels.FileIndexResult{}}, nil
	}
	return s.indexer.IndexFiles(ctx, paths, collection, force, method)
}

func (s *service) IndexDirectory(ctx context.Context, dir string, collection string, glob string, recursive bool, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error) {
	return s.indexer.IndexDirectory(ctx, dir, collection, glob, recursive, force, method)
}

func (s *service) RemoveDocuments(ctx context.Context, paths []string, collection string) (commonModels.BatchResult, error) {
	return s.indexer.RemoveDocuments(ctx, paths, collection)
}

func (s *service) ListDocuments(ctx context.Context, collection string) ([]commonModels.DocumentSummary, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}
	docs, err := s.meta.ListDocuments(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]commonModels.DocumentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, commonModels.DocumentSummary{
			FilePath:   d.FilePath,
			DocType:    d.DocType,
			ChunkCount: d.ChunkCount,
		})
	}
	return out, nil
}

func (s *service) GetDocumentContent(ctx context.Context, path string, collection string) ([]string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	doc, err := s.meta.GetDocumentByPath(ctx, absPath, collection)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: '%s' in collection '%s'", ragErrors.ErrDocumentNotFound, path, collection)
	}
	chunks, err := s.vectors.GetDocumentChunks(ctx, doc.DocId)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts, nil
}

func (s *service) Search(ctx context.Context, query string, topK int) ([]commonModels.SearchResult, error) {
	return s.search(ctx, query, vectorDB.Filter{}, topK)
}

func (s *service) SearchCollection(ctx context.Context, query string, collection string, topK int) ([]commonModels.SearchResult, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}
	return s.search(ctx, query, vectorDB.Filter{Collection: collection}, topK)
}

func (s *service) search(ctx context.Context, query string, filter vectorDB.Filter, topK int) ([]commonModels.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	log := s.logger.WithTrace(ctx)

	start := time.Now()
	vector, err := s.embedder.EmbedQuery(ctx, query)
	metrics.CaptureExecutionMetrics("query_embedding", time.Since(start))
	if err != nil {
		log.Error("Query embedding failed", "error", err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.vectors.Query(ctx, vector, clampTopK(topK), filter)
	if err != nil {
		return nil, err
	}
	log.Debug("Search complete", "collection", filter.Collection, "hits", len(results))
	if results == nil {
		results = []commonModels.SearchResult{}
	}
	return results, nil
}

// ProcessIndexJob runs a queued index or removal job and records the outcome on it.
func (s *service) ProcessIndexJob(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id, "type", job.JobType)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, config.IndexJobTimeout)
	defer cancel()

	p := job.JobPayload
	var (
		result commonModels.BatchResult
		err    error
	)
	switch job.JobType {
	case jobModel.JobTypeIndexFiles:
		job = logStep(job, jobModel.IndexProcessing, log)
		result, err = s.IndexFiles(ctx, p.FilePaths, p.Collection, p.Force, p.ExtractionMethod)
	case jobModel.JobTypeIndexDirectory:
		job = logStep(job, jobModel.IndexProcessing, log)
		result, err = s.IndexDirectory(ctx, p.DirectoryPath, p.Collection, p.GlobPattern, p.Recursive, p.Force, p.ExtractionMethod)
	case jobModel.JobTypeRemove:
		job = logStep(job, jobModel.RemoveRunning, log)
		result, err = s.RemoveDocuments(ctx, p.FilePaths, p.Collection)
	default:
		err = fmt.Errorf("unknown job type %q", job.JobType)
	}

	if err != nil {
		metrics.CaptureJobMetrics("error", time.Since(start))
		return s.jobError(job, err, log)
	}
	metrics.CaptureJobMetrics("complete", time.Since(start))
	log.Info("Job finished", "succeeded", result.Succeeded, "failed", result.Failed)
	return returnOutput(job, result)
}

func (s *service) requireCollection(ctx context.Context, name string) error {
	exists, err := s.meta.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return collectionNotFound(name)
	}
	return nil
}

func collectionNotFound(name string) error {
	return fmt.Errorf("%w: '%s'", ragErrors.ErrCollectionNotFound, name)
}

func clampTopK(k int) int {
	if k <= 0 {
		return config.DefaultTopK
	}
	return min(k, config.MaxTopK)
}
