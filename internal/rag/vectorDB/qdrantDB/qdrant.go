package qdrantDB

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/akolanti/localrag/internal/metrics"
	"github.com/akolanti/localrag/internal/rag/vectorDB"
	"github.com/akolanti/localrag/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const (
	fieldText       = "text"
	fieldDocId      = "doc_id"
	fieldFilePath   = "file_path"
	fieldCollection = "collection"
	fieldChunkIndex = "chunk_index"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var once sync.Once

type ClientHolder struct {
	QObj       *qdrant.Client
	collection string
	dimension  uint64
}

// GetQuadrantClient connects once per process. Nil means qdrant is unreachable.
func GetQuadrantClient(ctx context.Context, host string, port int, dimension int) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient(ctx, host, port)
		if res != nil {
			quadrantInstance = res
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj:       quadrantInstance,
		collection: config.QdrantCollectionName,
		dimension:  uint64(dimension),
	}
}

func newClient(ctx context.Context, host string, port int) *qdrant.Client {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate", "error", err)
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.QdrantConnectionTimeout)
	defer cancel()
	if _, err := client.HealthCheck(pingCtx); err != nil {
		logger.Error("Qdrant is offline", "host", host, "port", port, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("Connected to Qdrant", "host", host, "port", port)
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
	logger.Info("Closed Qdrant")
}

// EnsureCollection creates the shared collection and its keyword indexes.
func (db *ClientHolder) EnsureCollection(ctx context.Context) error {
	exists, err := db.QObj.CollectionExists(ctx, db.collection)
	if err != nil {
		return ragErrors.Storage("check qdrant collection", err)
	}
	if exists {
		return nil
	}

	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: db.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     db.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return ragErrors.Storage("create qdrant collection", err)
	}

	for _, field := range []string{fieldCollection, fieldDocId} {
		_, err := db.QObj.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: db.collection,
			FieldName:      field,
			FieldType:      qdrant.PtrOf(qdrant.FieldType_FieldTypeKeyword),
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return ragErrors.Storage("create payload index "+field, err)
		}
	}
	logger.Info("Created collection", "collection", db.collection, "dimension", db.dimension)
	return nil
}

// PointId is deterministic so re-inserting a chunk overwrites it.
func PointId(docId string, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(docId+":"+strconv.Itoa(chunkIndex))).String()
}

func (db *ClientHolder) Upsert(ctx context.Context, chunks []string, vectors [][]float32, docId string, filePath string, collection string) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		payload, err := qdrant.TryValueMap(map[string]any{
			fieldText:       strings.ToValidUTF8(chunk, "�"),
			fieldDocId:      docId,
			fieldFilePath:   filePath,
			fieldCollection: collection,
			fieldChunkIndex: i,
		})
		if err != nil {
			return fmt.Errorf("building payload: %w", err)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(PointId(docId, i)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: payload,
		}
	}

	start := time.Now()
	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	metrics.CaptureExecutionMetrics("qdrant_upsert", time.Since(start))
	return ragErrors.Storage("qdrant upsert", err)
}

func (db *ClientHolder) DeleteByDocId(ctx context.Context, docId string) (int, error) {
	return db.deleteWhere(ctx, fieldDocId, docId)
}

func (db *ClientHolder) DeleteByCollection(ctx context.Context, collection string) (int, error) {
	return db.deleteWhere(ctx, fieldCollection, collection)
}

// deleteWhere counts first since qdrant does not report deleted points.
func (db *ClientHolder) deleteWhere(ctx context.Context, field string, value string) (int, error) {
	filter := &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatchKeyword(field, value)}}

	count, err := db.QObj.Count(ctx, &qdrant.CountPoints{
		CollectionName: db.collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, ragErrors.Storage("qdrant count", err)
	}
	if count == 0 {
		return 0, nil
	}

	_, err = db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: db.collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, ragErrors.Storage("qdrant delete", err)
	}
	logger.WithTrace(ctx).Debug("Deleted chunks", field, value, "count", count)
	return int(count), nil
}

func (db *ClientHolder) Query(ctx context.Context, vector []float32, topK int, filter vectorDB.Filter) ([]commonModels.SearchResult, error) {
	start := time.Now()
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         toQdrantFilter(filter),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	metrics.CaptureExecutionMetrics("qdrant_query", time.Since(start))
	if err != nil {
		logger.WithTrace(ctx).Error("Error querying Qdrant", "error", err)
		return nil, ragErrors.Storage("qdrant query", err)
	}

	results := make([]commonModels.SearchResult, 0, len(result))
	for _, hit := range result {
		results = append(results, commonModels.SearchResult{
			ChunkRecord: toChunk(hit.Payload),
			Score:       hit.Score,
		})
	}
	return results, nil
}

func (db *ClientHolder) CountByCollection(ctx context.Context, collection string) (int, error) {
	return db.countWhere(ctx, fieldCollection, collection)
}

func (db *ClientHolder) CountByDocId(ctx context.Context, docId string) (int, error) {
	return db.countWhere(ctx, fieldDocId, docId)
}

func (db *ClientHolder) countWhere(ctx context.Context, field string, value string) (int, error) {
	count, err := db.QObj.Count(ctx, &qdrant.CountPoints{
		CollectionName: db.collection,
		Filter:         &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatchKeyword(field, value)}},
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, ragErrors.Storage("qdrant count", err)
	}
	return int(count), nil
}

func (db *ClientHolder) GetDocumentChunks(ctx context.Context, docId string) ([]commonModels.ChunkRecord, error) {
	filter := &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatchKeyword(fieldDocId, docId)}}

	var chunks []commonModels.ChunkRecord
	var offset *qdrant.PointId
	for {
		points, err := db.QObj.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: db.collection,
			Filter:         filter,
			Offset:         offset,
			Limit:          qdrant.PtrOf(uint32(config.QdrantScrollPageSize + 1)),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, ragErrors.Storage("qdrant scroll", err)
		}
		// the extra point is the next page's offset
		if len(points) <= config.QdrantScrollPageSize {
			for _, p := range points {
				chunks = append(chunks, toChunk(p.Payload))
			}
			break
		}
		for _, p := range points[:config.QdrantScrollPageSize] {
			chunks = append(chunks, toChunk(p.Payload))
		}
		offset = points[config.QdrantScrollPageSize].Id
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })
	return chunks, nil
}

func toQdrantFilter(f vectorDB.Filter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.Collection != "" {
		must = append(must, qdrant.NewMatchKeyword(fieldCollection, f.Collection))
	}
	if len(f.DocIds) > 0 {
		must = append(must, qdrant.NewMatchKeywords(fieldDocId, f.DocIds...))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func toChunk(payload map[string]*qdrant.Value) commonModels.ChunkRecord {
	return commonModels.ChunkRecord{
		Text:       payload[fieldText].GetStringValue(),
		DocId:      payload[fieldDocId].GetStringValue(),
		FilePath:   payload[fieldFilePath].GetStringValue(),
		Collection: payload[fieldCollection].GetStringValue(),
		ChunkIndex: int(payload[fieldChunkIndex].GetIntegerValue()),
	}
}
