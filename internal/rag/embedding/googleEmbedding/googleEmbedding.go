package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/metrics"
	"github.com/akolanti/localrag/internal/rag/embedding"
	"github.com/akolanti/localrag/pkg/logger_i"
	"google.golang.org/genai"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.EmbeddingOutputDimensionality

var errClientClosed = errors.New("google embedding client is closed")

type client struct {
	genAi  *genai.Client
	model  string
	closed atomic.Bool
}

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string, httpClient *http.Client) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apikey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return
	}
	embeddingClient = &client{
		genAi: c,
		model: modelName,
	}
	logger.Info("Google Embedding client created", "model", modelName, "dimension", dimension)
	go closeClient(ctx, embeddingClient)
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
	embeddingClient.closed.Store(true)
}

// GetGoogleEmbeddingClient returns nil when no api key is set or init failed.
func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string, httpClient *http.Client) embedding.Embedder {
	if apikey == "" {
		return nil
	}
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, modelName, apikey, httpClient)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return embeddingClient
}

func (c *client) Dimension() int {
	return int(dimension)
}

func (c *client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.doCall(ctx, []string{query}, taskQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := logger.WithTrace(ctx)
	log.Debug("Embedding chunks", "count", len(texts))

	out := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts) {
		vectors, err := c.doCall(ctx, batch, taskDocument)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// doCall embeds one batch, waiting out rate limits a couple of times.
func (c *client) doCall(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if c.closed.Load() {
		return nil, errClientClosed
	}
	log := logger.WithTrace(ctx)
	cfg := &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: taskType}

	var err error
	for attempt := 1; attempt <= maxEmbedAttempts; attempt++ {
		start := time.Now()
		var res *genai.EmbedContentResponse
		res, err = c.genAi.Models.EmbedContent(ctx, c.model, getContent(texts), cfg)
		metrics.CaptureExecutionMetrics("embedding", time.Since(start))
		if err == nil {
			return toVectors(res, len(texts))
		}
		if !doRetry(err, log) || attempt == maxEmbedAttempts {
			break
		}
		log.Debug("Retrying embedding call", "in", retryWait, "attempt", attempt)
		if werr := wait(ctx, retryWait); werr != nil {
			return nil, werr
		}
	}
	return nil, fmt.Errorf("embedding call failed: %w", err)
}
