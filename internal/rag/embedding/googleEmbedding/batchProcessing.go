package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	maxEmbedAttempts = 3
	retryWait        = 5 * time.Second
)

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))

	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

// doRetry reports whether err is the provider throttling us.
func doRetry(err error, log *logger_i.Logger) bool {
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		log.Warn("Rate limit hit", "error", err)
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		log.Warn("Rate limit hit", "error", err)
		return true
	}
	return false
}

// batches splits texts into provider-sized groups.
func batches(texts []string) [][]string {
	var out [][]string
	for i := 0; i < len(texts); i += config.EmbeddingBatchSize {
		end := min(i+config.EmbeddingBatchSize, len(texts))
		out = append(out, texts[i:end])
	}
	return out
}

func toVectors(res *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if res == nil || len(res.Embeddings) != want {
		got := 0
		if res != nil {
			got = len(res.Embeddings)
		}
		return nil, fmt.Errorf("embedding response has %d vectors, want %d", got, want)
	}
	vectors := make([][]float32, 0, want)
	for _, e := range res.Embeddings {
		if e == nil {
			return nil, errors.New("embedding response contains an empty vector")
		}
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
