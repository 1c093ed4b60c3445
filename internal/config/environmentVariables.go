package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, it falls back to an internal store
	TRACE_ID_KEY                    = "traceId"
	RATE_LIMIT_PER_SECOND           = 2
	BURST_RATE_LIMIT_PER_SECOND     = 5

	//run modes
	ModeMCP  = "mcp"
	ModeHTTP = "http"

	//data dir
	DataDirName      = "localrag"
	MetadataFileName = "metadata.db"

	//chunking
	DefaultChunkSize       = 512
	DefaultChunkOverlap    = 50
	DefaultMaxChunksPerDoc = 10000

	//concurrency
	DefaultMaxConcurrentFiles  = 32
	DefaultMaxConcurrentGemini = 128
	MaxOCRAttempts             = 3

	//ocr heuristic - a page with less than this is sent to OCR
	MinTextLengthThreshold = 50
	MinTextPerPageRatio    = 10
	PageExtractTimeout     = 10 * time.Second

	OCRInstruction = "Convert this PDF page to Markdown. Preserve headings, lists, tables, and formatting. Return only the Markdown content."

	//search
	DefaultTopK = 5
	MaxTopK     = 100

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second
	IndexJobTimeout        = 30 * time.Minute

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = "localhost"
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1
	QdrantCollectionName    = "chunks"
	QdrantScrollPageSize    = 256

	//gemini
	GeminiOCRModel       = "gemini-2.5-flash"
	GoogleEmbeddingModel = "gemini-embedding-001"
	GeminiClientTimeout  = 2 * time.Minute

	EmbeddingOutputDimensionality int32 = 768
	EmbeddingBatchSize                  = 100
	QueryEmbeddingCacheSize             = 512
	QueryEmbeddingCacheTTL              = 15 * time.Minute

	//azure document intelligence
	AzureDIModel         = "prebuilt-layout"
	AzureDIAPIVersion    = "2024-11-30"
	AzureDIPollInterval  = 2 * time.Second
	AzureDIClientTimeout = 5 * time.Minute

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore       = 0
	RedisPageCacheStore = 1

	//redis timeouts
	RedisJobStoreTTL  = 24 * time.Hour
	RedisPageCacheTTL = 7 * 24 * time.Hour
	RedisPingTimeout  = 3 * time.Second
	RedisIOTimeout    = 30 * time.Second

	//in-memory job store, used when redis is offline
	InMemoryJobStoreSize = 4096

	PageCacheBackendSQLite = "sqlite"
	PageCacheBackendRedis  = "redis"
	PageCacheBackendMemory = "memory"

	//vector index backends. memory keeps metadata in a throwaway dir too
	VectorBackendQdrant = "qdrant"
	VectorBackendMemory = "memory"
)
