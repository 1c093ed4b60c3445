package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/akolanti/localrag/internal/metrics"
	"github.com/akolanti/localrag/internal/rag/llm"
	"github.com/akolanti/localrag/pkg/logger_i"
	"google.golang.org/genai"
)

const pdfMimeType = "application/pdf"

var errClientClosed = errors.New("gemini ocr client is closed")

// ocrClient is shared by every extraction. It is never mutated after
// creation apart from the closed flag.
type ocrClient struct {
	client    *genai.Client
	modelName string
	closed    atomic.Bool
}

var logger *logger_i.Logger
var geminiClient *ocrClient
var once sync.Once

// GetGeminiOCRClient returns nil when no api key is set or the client could not be built.
func GetGeminiOCRClient(ctx context.Context, modelName string, apiKey string, httpClient *http.Client) llm.OCRProvider {
	if apiKey == "" {
		return nil
	}
	once.Do(func() {
		logger = logger_i.NewLogger("ocr_gemini")
		newGeminiClient(ctx, modelName, apiKey, httpClient)
	})

	if geminiClient == nil {
		return nil
	}
	return geminiClient
}

func newGeminiClient(ctx context.Context, modelName string, apiKey string, httpClient *http.Client) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return
	}
	geminiClient = &ocrClient{client: c, modelName: modelName}
	logger.Info("Gemini OCR client created", "model", modelName)
	go closeClient(ctx, geminiClient)
}

func (c *ocrClient) Submit(ctx context.Context, pageBytes []byte, instruction string) (string, error) {
	if c.closed.Load() {
		return "", errClientClosed
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(pageBytes, pdfMimeType),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		MediaResolution: genai.MediaResolutionMedium,
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	metrics.CaptureExecutionMetrics("gemini_ocr", time.Since(start))
	if err != nil {
		if rl := asRateLimit(err); rl != nil {
			return "", rl
		}
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return resp.Text(), nil
}

// asRateLimit maps a throttled genai call onto a RateLimitError, nil otherwise.
func asRateLimit(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	if apiErr.Code != http.StatusTooManyRequests && !strings.Contains(apiErr.Status, "RESOURCE_EXHAUSTED") {
		return nil
	}
	return &ragErrors.RateLimitError{RetryAfter: retryHint(apiErr.Details), Err: err}
}

// retryHint reads google.rpc.RetryInfo.retryDelay ("13s") as plain seconds.
func retryHint(details []map[string]any) string {
	for _, d := range details {
		t, _ := d["@type"].(string)
		if !strings.HasSuffix(t, "RetryInfo") {
			continue
		}
		delay, _ := d["retryDelay"].(string)
		if delay == "" {
			continue
		}
		if dur, err := time.ParseDuration(delay); err == nil {
			return fmt.Sprintf("%g", dur.Seconds())
		}
		return strings.TrimSuffix(delay, "s")
	}
	return ""
}

func closeClient(ctx context.Context, c *ocrClient) {
	<-ctx.Done()
	logger.Info("Closing Gemini OCR client")
	c.closed.Store(true)
}
