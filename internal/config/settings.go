package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// secrets and toggles resolved by Load
var (
	AuthToken     string
	NoAuthBypass  bool
	RedisPassword string
)

type Settings struct {
	DataDir             string
	ChunkSize           int
	ChunkOverlap        int
	MaxChunksPerDoc     int
	MaxConcurrentFiles  int
	MaxConcurrentGemini int

	GeminiAPIKey   string
	GeminiOCRModel string
	EmbeddingModel string

	AzureDIEndpoint string
	AzureDIKey      string

	QdrantHost    string
	QdrantPort    int
	VectorBackend string

	PageCacheBackend string
	IsProd           bool
	LogLevel         slog.Level
}

// Load reads the environment over the compiled defaults. Call godotenv.Load first.
func Load() Settings {
	s := Settings{
		DataDir:             getEnvString("LOCALRAG_DATA_DIR", defaultDataDir()),
		ChunkSize:           getEnvInt("LOCALRAG_CHUNK_SIZE", DefaultChunkSize),
		ChunkOverlap:        getEnvInt("LOCALRAG_CHUNK_OVERLAP", DefaultChunkOverlap),
		MaxChunksPerDoc:     getEnvInt("LOCALRAG_MAX_CHUNKS_PER_DOC", DefaultMaxChunksPerDoc),
		MaxConcurrentFiles:  getEnvInt("LOCALRAG_MAX_CONCURRENT_FILES", DefaultMaxConcurrentFiles),
		MaxConcurrentGemini: getEnvInt("LOCALRAG_MAX_CONCURRENT_GEMINI", DefaultMaxConcurrentGemini),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiOCRModel:      getEnvString("GEMINI_OCR_MODEL", GeminiOCRModel),
		EmbeddingModel:      getEnvString("GOOGLE_EMBEDDING_MODEL", GoogleEmbeddingModel),
		AzureDIEndpoint:     strings.TrimRight(os.Getenv("AZURE_DOCUMENT_INTELLIGENCE_ENDPOINT"), "/"),
		AzureDIKey:          os.Getenv("AZURE_DOCUMENT_INTELLIGENCE_KEY"),
		QdrantHost:          getEnvString("QDRANT_HOST", QdrantHost),
		QdrantPort:          getEnvInt("QDRANT_PORT", QdrantGrpcPort),
		VectorBackend:       strings.ToLower(getEnvString("VECTOR_BACKEND", VectorBackendQdrant)),
		PageCacheBackend:    getEnvString("PAGE_CACHE_BACKEND", PageCacheBackendSQLite),
		IsProd:              getEnvBool("IS_PROD", IS_PROD),
		LogLevel:            parseLevel(os.Getenv("LOG_LEVEL")),
	}

	if s.ChunkOverlap >= s.ChunkSize {
		s.ChunkOverlap = s.ChunkSize / 10
	}
	// records must not outlive chunks held in process memory
	if s.VectorBackend == VectorBackendMemory {
		s.DataDir = filepath.Join(os.TempDir(), DataDirName+"-"+strconv.Itoa(os.Getpid()))
	}

	AuthToken = os.Getenv("AUTH_TOKEN")
	NoAuthBypass = getEnvBool("NO_AUTH_BYPASS", false)
	RedisPassword = os.Getenv("REDIS_PASSWORD")
	return s
}

func defaultDataDir() string {
	base := os.Getenv("LOCALAPPDATA")
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil {
			base = filepath.Join(home, ".local", "share")
		} else {
			base = "."
		}
	}
	return filepath.Join(base, DataDirName)
}

func getEnvString(key string, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func parseLevel(v string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelDebug
	}
	return level
}
