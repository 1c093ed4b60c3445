package memoryDB

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/rag/vectorDB"
)

type point struct {
	chunk  commonModels.ChunkRecord
	vector []float32
}

// Index is an in-process VectorIndex with brute-force cosine search.
// Used when qdrant is unreachable and in tests; nothing is persisted.
type Index struct {
	mu     sync.RWMutex
	points map[string][]point // by doc id

	// FailUpsert, when set, is returned by Upsert.
	FailUpsert error
}

func New() *Index {
	return &Index{points: make(map[string][]point)}
}

func (m *Index) EnsureCollection(ctx context.Context) error {
	return nil
}

func (m *Index) Upsert(ctx context.Context, chunks []string, vectors [][]float32, docId string, filePath string, collection string) error {
	if m.FailUpsert != nil {
		return m.FailUpsert
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.points[docId]
	for i, text := range chunks {
		p := point{
			chunk: commonModels.ChunkRecord{
				Text:       text,
				DocId:      docId,
				FilePath:   filePath,
				Collection: collection,
				ChunkIndex: i,
			},
			vector: vectors[i],
		}
		// same (doc, index) overwrites
		replaced := false
		for j := range existing {
			if existing[j].chunk.ChunkIndex == i {
				existing[j] = p
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, p)
		}
	}
	m.points[docId] = existing
	return nil
}

func (m *Index) DeleteByDocId(ctx context.Context, docId string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.points[docId])
	delete(m.points, docId)
	return n, nil
}

func (m *Index) DeleteByCollection(ctx context.Context, collection string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for docId, pts := range m.points {
		kept := pts[:0]
		for _, p := range pts {
			if p.chunk.Collection == collection {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(m.points, docId)
		} else {
			m.points[docId] = kept
		}
	}
	return removed, nil
}

func (m *Index) Query(ctx context.Context, vector []float32, topK int, filter vectorDB.Filter) ([]commonModels.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []commonModels.SearchResult
	for docId, pts := range m.points {
		if len(filter.DocIds) > 0 && !slices.Contains(filter.DocIds, docId) {
			continue
		}
		for _, p := range pts {
			if filter.Collection != "" && p.chunk.Collection != filter.Collection {
				continue
			}
			results = append(results, commonModels.SearchResult{ChunkRecord: p.chunk, Score: cosine(vector, p.vector)})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].DocId != results[j].DocId {
			return results[i].DocId < results[j].DocId
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *Index) CountByCollection(ctx context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, pts := range m.points {
		for _, p := range pts {
			if p.chunk.Collection == collection {
				n++
			}
		}
	}
	return n, nil
}

func (m *Index) CountByDocId(ctx context.Context, docId string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points[docId]), nil
}

func (m *Index) GetDocumentChunks(ctx context.Context, docId string) ([]commonModels.ChunkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pts := m.points[docId]
	out := make([]commonModels.ChunkRecord, 0, len(pts))
	for _, p := range pts {
		out = append(out, p.chunk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

// Len is the total number of stored chunks.
func (m *Index) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, pts := range m.points {
		n += len(pts)
	}
	return n
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
