package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// IndexFiles indexes paths concurrently, at most MaxConcurrentFiles at a time.
// Results keep the input order.
func (ix *Indexer) IndexFiles(ctx context.Context, paths []string, collection string, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error) {
	if err := ix.ensureCollection(ctx, collection); err != nil {
		return commonModels.BatchResult{}, err
	}
	log := logger.WithTrace(ctx).With("collection", collection)
	log.Info("Indexing files", "count", len(paths))

	results := ix.indexAll(ctx, paths, collection, force, method)
	batch := commonModels.NewBatchResult(results)
	log.Info("Indexing complete", "succeeded", batch.Succeeded, "failed", batch.Failed)
	return batch, nil
}

// IndexDirectory indexes the supported files under dir matching glob. The
// pattern is matched against the slash separated path relative to dir, so
// "sub/*.pdf" and "**/*.md" work. recursive matches it at any depth.
func (ix *Indexer) IndexDirectory(ctx context.Context, dir string, collection string, glob string, recursive bool, force bool, method commonModels.ExtractionMethod) (commonModels.BatchResult, error) {
	dir = expandHome(dir)
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return commonModels.BatchResult{}, fmt.Errorf("%w: %s", ragErrors.ErrDirectoryNotFound, dir)
	}
	if err != nil {
		return commonModels.BatchResult{}, err
	}
	if !info.IsDir() {
		return commonModels.BatchResult{}, fmt.Errorf("%w: %s", ragErrors.ErrNotADirectory, dir)
	}
	if glob == "" {
		glob = "*"
	}
	if !doublestar.ValidatePattern(glob) {
		return commonModels.BatchResult{}, fmt.Errorf("invalid glob pattern %q: %w", glob, doublestar.ErrBadPattern)
	}

	if err := ix.ensureCollection(ctx, collection); err != nil {
		return commonModels.BatchResult{}, err
	}

	files, err := listFiles(dir, glob, recursive)
	if err != nil {
		return commonModels.BatchResult{}, err
	}
	if len(files) == 0 {
		return commonModels.BatchResult{}, fmt.Errorf("%w. Supported extensions: %s", ragErrors.ErrNoSupportedFiles, supportedExtensions())
	}

	log := logger.WithTrace(ctx).With("collection", collection, "dir", dir)
	log.Info("Indexing directory", "files", len(files))

	batch := commonModels.NewBatchResult(ix.indexAll(ctx, files, collection, force, method))
	log.Info("Directory indexing complete", "succeeded", batch.Succeeded, "failed", batch.Failed)
	return batch, nil
}

// indexAll never cancels siblings: one bad file only fails its own slot.
func (ix *Indexer) indexAll(ctx context.Context, paths []string, collection string, force bool, method commonModels.ExtractionMethod) []commonModels.FileIndexResult {
	results := make([]commonModels.FileIndexResult, len(paths))
	var g errgroup.Group
	g.SetLimit(ix.opts.MaxConcurrentFiles)
	for i, p := range paths {
		g.Go(func() error {
			results[i] = ix.Index(ctx, p, collection, force, method)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// RemoveDocuments drops each document's chunks, cached pages and record.
func (ix *Indexer) RemoveDocuments(ctx context.Context, paths []string, collection string) (commonModels.BatchResult, error) {
	log := logger.WithTrace(ctx).With("collection", collection)
	results := make([]commonModels.FileIndexResult, 0, len(paths))

	for _, p := range paths {
		absPath, err := filepath.Abs(expandHome(p))
		if err != nil {
			results = append(results, commonModels.FileIndexResult{FilePath: p, Message: err.Error()})
			continue
		}
		doc, err := ix.meta.GetDocumentByPath(ctx, absPath, collection)
		if err != nil {
			log.Error("Document lookup failed", "file", p, "error", err)
			results = append(results, commonModels.FileIndexResult{FilePath: p, Message: err.Error()})
			continue
		}
		if doc == nil {
			results = append(results, commonModels.FileIndexResult{FilePath: p, Message: "Document not found"})
			continue
		}

		if _, err := ix.vectors.DeleteByDocId(ctx, doc.DocId); err != nil {
			results = append(results, commonModels.FileIndexResult{FilePath: p, Message: err.Error()})
			continue
		}
		if _, err := ix.cache.Clear(ctx, doc.FileHash); err != nil {
			log.Warn("Failed to clear page cache", "file", p, "error", err)
		}
		if err := ix.meta.DeleteDocument(ctx, doc.DocId); err != nil {
			results = append(results, commonModels.FileIndexResult{FilePath: p, Message: err.Error()})
			continue
		}
		log.Info("Removed document", "file", p)
		results = append(results, commonModels.FileIndexResult{FilePath: p, Success: true})
	}
	return commonModels.NewBatchResult(results), nil
}

// DeleteCollection removes the collection's chunks, cached pages and records.
// It returns the number of chunks removed.
func (ix *Indexer) DeleteCollection(ctx context.Context, name string) (int, error) {
	exists, err := ix.meta.CollectionExists(ctx, name)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", ragErrors.ErrCollectionNotFound, name)
	}

	log := logger.WithTrace(ctx).With("collection", name)
	removed, err := ix.vectors.DeleteByCollection(ctx, name)
	if err != nil {
		return 0, err
	}
	// must run while the document records still name the hashes
	if n, err := ix.cache.ClearForCollection(ctx, name); err != nil {
		log.Warn("Failed to clear page cache", "error", err)
	} else if n > 0 {
		log.Debug("Cleared page cache", "pages", n)
	}
	if err := ix.meta.DeleteCollection(ctx, name); err != nil {
		return removed, err
	}
	log.Info("Deleted collection", "chunks", removed)
	return removed, nil
}

func (ix *Indexer) ensureCollection(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ragErrors.ErrInvalidCollectionName
	}
	created, err := ix.meta.CreateCollection(ctx, name)
	if err != nil {
		return err
	}
	if created {
		logger.WithTrace(ctx).Info("Created collection", "collection", name)
	}
	return nil
}

func listFiles(dir string, glob string, recursive bool) ([]string, error) {
	pattern := strings.TrimPrefix(filepath.ToSlash(glob), "./")
	if recursive && !strings.HasPrefix(pattern, "**/") {
		pattern = "**/" + pattern
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(dir, filepath.FromSlash(m))
		if commonModels.GetDocType(path) == commonModels.ERR {
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

func supportedExtensions() string {
	exts := make([]string, 0, len(commonModels.SupportedExtensions))
	for ext := range commonModels.SupportedExtensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return strings.Join(exts, ", ")
}
