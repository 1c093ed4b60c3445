package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/akolanti/localrag/pkg/logger_i"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestAsRateLimit(t *testing.T) {
	throttled := genai.APIError{
		Code:   429,
		Status: "RESOURCE_EXHAUSTED",
		Details: []map[string]any{
			{"@type": "type.googleapis.com/google.rpc.QuotaFailure"},
			{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "13s"},
		},
	}

	err := asRateLimit(fmt.Errorf("wrapped: %w", throttled))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ragErrors.ErrRateLimited))

	var rl *ragErrors.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, "13", rl.RetryAfter)
}

func TestAsRateLimit_NotThrottled(t *testing.T) {
	assert.Nil(t, asRateLimit(genai.APIError{Code: 400, Status: "INVALID_ARGUMENT"}))
	assert.Nil(t, asRateLimit(errors.New("network down")))
}

func TestRetryHint(t *testing.T) {
	tests := []struct {
		name    string
		details []map[string]any
		want    string
	}{
		{"none", nil, ""},
		{"seconds", []map[string]any{{"@type": "google.rpc.RetryInfo", "retryDelay": "2s"}}, "2"},
		{"fractional", []map[string]any{{"@type": "google.rpc.RetryInfo", "retryDelay": "1.5s"}}, "1.5"},
		{"other detail", []map[string]any{{"@type": "google.rpc.ErrorInfo", "retryDelay": "9s"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryHint(tt.details))
		})
	}
}

func TestSubmit_AfterShutdown(t *testing.T) {
	logger = logger_i.NewLogger("test")
	c := &ocrClient{modelName: "gemini-test"}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		closeClient(ctx, c)
		close(done)
	}()
	cancel()
	<-done

	_, err := c.Submit(context.Background(), []byte("%PDF"), "ocr")
	assert.ErrorIs(t, err, errClientClosed)
	assert.Equal(t, "gemini-test", c.modelName)
}
