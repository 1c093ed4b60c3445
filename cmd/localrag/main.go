package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/customHttpClient"
	"github.com/akolanti/localrag/internal/data/sqliteStore"
	"github.com/akolanti/localrag/internal/data/store"
	"github.com/akolanti/localrag/internal/domain/jobModel"
	"github.com/akolanti/localrag/internal/handlers"
	"github.com/akolanti/localrag/internal/job"
	"github.com/akolanti/localrag/internal/mcpserver"
	"github.com/akolanti/localrag/internal/rag"
	"github.com/akolanti/localrag/internal/rag/embedding/cachedEmbedding"
	"github.com/akolanti/localrag/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/localrag/internal/rag/indexer"
	"github.com/akolanti/localrag/internal/rag/ingest"
	"github.com/akolanti/localrag/internal/rag/llm/gemini"
	"github.com/akolanti/localrag/internal/rag/metadata"
	"github.com/akolanti/localrag/internal/rag/ocr"
	"github.com/akolanti/localrag/internal/rag/structured"
	"github.com/akolanti/localrag/internal/rag/structured/azureDI"
	"github.com/akolanti/localrag/internal/rag/vectorDB"
	"github.com/akolanti/localrag/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/localrag/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/localrag/internal/server"
	"github.com/akolanti/localrag/internal/worker"
	"github.com/akolanti/localrag/pkg/logger_i"
	"github.com/joho/godotenv"
)

var (
	mode              string
	listenAddr        string
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	//a missing .env is fine, the environment may already be set
	_ = godotenv.Load()
	settings := config.Load()

	flag.StringVar(&mode, "mode", config.ModeMCP, "run mode: mcp (stdio) or http")
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address (http mode)")
	flag.Parse()

	//stdout carries the MCP protocol
	logOut := os.Stdout
	if mode == config.ModeMCP {
		logOut = os.Stderr
	}
	logger_i.Init(logOut, settings.IsProd, settings.LogLevel)
	logger := logger_i.NewLogger("main")

	if mode != config.ModeMCP && mode != config.ModeHTTP {
		logger.Error("Unknown mode", "mode", mode)
		os.Exit(2)
	}

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	ragService, ok := buildRagService(serviceContext, settings, logger)
	if !ok {
		closeExternalServices()
		os.Exit(1)
	}

	if mode == config.ModeMCP {
		runMCP(serviceContext, closeExternalServices, ragService, logger)
		return
	}
	runHTTP(serviceContext, closeExternalServices, ragService, logger)
}

func buildRagService(ctx context.Context, settings config.Settings, logger *logger_i.Logger) (rag.Service, bool) {
	metaStore, err := sqliteStore.NewStore(settings.DataDir)
	if err != nil {
		logger.Error("Could not open metadata store", "dataDir", settings.DataDir, "error", err)
		return nil, false
	}
	metaStore.CloseOnDone(ctx)

	var pageCache metadata.PageCache = metaStore
	switch settings.PageCacheBackend {
	case config.PageCacheBackendRedis:
		if redisCache := store.GetRedisPageCache(ctx, metaStore); redisCache != nil {
			pageCache = redisCache
		} else {
			logger.Error("Redis page cache is offline, using sqlite")
		}
	case config.PageCacheBackendMemory:
		pageCache = store.InitInMemoryPageCache(metaStore)
	}

	embedder := googleEmbedding.GetGoogleEmbeddingClient(ctx, settings.EmbeddingModel, settings.GeminiAPIKey, customHttpClient.GetClient(config.GeminiClientTimeout))
	if embedder == nil {
		logger.Error("Embedding service is not available. Set GEMINI_API_KEY.")
		return nil, false
	}
	embedder = cachedEmbedding.Wrap(embedder, config.QueryEmbeddingCacheSize, config.QueryEmbeddingCacheTTL)

	var vectors vectorDB.VectorIndex
	switch settings.VectorBackend {
	case config.VectorBackendMemory:
		logger.Warn("Using the in-memory vector index, nothing is kept after exit", "dataDir", settings.DataDir)
		vectors = memoryDB.New()
		go func() {
			<-ctx.Done()
			_ = os.RemoveAll(settings.DataDir)
		}()
	case config.VectorBackendQdrant:
		//assigning a nil *ClientHolder would make a non-nil interface
		qdrant := qdrantDB.GetQuadrantClient(ctx, settings.QdrantHost, settings.QdrantPort, embedder.Dimension())
		if qdrant == nil {
			logger.Error("Qdrant is offline. Start it or set VECTOR_BACKEND=memory", "host", settings.QdrantHost, "port", settings.QdrantPort)
			return nil, false
		}
		vectors = qdrant
	default:
		logger.Error("Unknown vector backend", "backend", settings.VectorBackend)
		return nil, false
	}
	if err := vectors.EnsureCollection(ctx); err != nil {
		logger.Error("Could not prepare vector collection", "error", err)
		return nil, false
	}

	ocrProvider := gemini.GetGeminiOCRClient(ctx, settings.GeminiOCRModel, settings.GeminiAPIKey, customHttpClient.GetClient(config.GeminiClientTimeout))
	var structuredProvider structured.Provider
	if settings.AzureDIEndpoint != "" && settings.AzureDIKey != "" {
		structuredProvider = azureDI.NewClient(settings.AzureDIEndpoint, settings.AzureDIKey, customHttpClient.GetClient(config.AzureDIClientTimeout))
	}
	logger.Info("Providers", "ocr", ocrProvider != nil, "structured", structuredProvider != nil, "pageCache", settings.PageCacheBackend)

	retry := ocr.NewRetryController(ocr.NewLimiter(settings.MaxConcurrentGemini))
	extractor := ingest.NewExtractor(pageCache, retry, ocrProvider, structuredProvider)

	ix := indexer.New(metaStore, pageCache, vectors, embedder, extractor, indexer.Options{
		ChunkSize:          settings.ChunkSize,
		ChunkOverlap:       settings.ChunkOverlap,
		MaxChunksPerDoc:    settings.MaxChunksPerDoc,
		MaxConcurrentFiles: settings.MaxConcurrentFiles,
	})
	return rag.NewService(metaStore, vectors, embedder, ix), true
}

func runMCP(ctx context.Context, closeServices context.CancelFunc, ragService rag.Service, logger *logger_i.Logger) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting MCP server on stdio")
	if err := mcpserver.NewServer(ragService).Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP server stopped", "error", err)
		closeServices()
		os.Exit(1)
	}
	logger.Info("MCP server stopped")
}

func runHTTP(ctx context.Context, closeServices context.CancelFunc, ragService rag.Service, logger *logger_i.Logger) {
	stopWorkerChannel = make(chan bool, 1)

	var jobStore jobModel.JobStore
	//assigning a nil *RedisJobStore would make a non-nil interface
	if redisJobs := store.GetRedisJobStore(ctx); redisJobs != nil {
		jobStore = redisJobs
	} else if config.FALLBACK_REDIS_TO_INTERNALSTORE {
		logger.Error("Redis job store is offline, using in-memory store")
		jobStore = store.InitInMemoryJobStore()
	} else {
		logger.Error("Redis job store is offline")
		closeServices()
		os.Exit(1)
	}
	logger.Info("Starting index queue", "buffer", config.BufferLimit)
	queue := job.NewQueue(jobStore, config.BufferLimit)

	handlers.InitJobHandler(queue)
	handlers.InitRequestHandler(ragService)

	//init worker pool
	worker.InitServices(queue, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
