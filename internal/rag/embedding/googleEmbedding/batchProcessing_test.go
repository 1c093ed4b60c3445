package googleEmbedding

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestBatches(t *testing.T) {
	texts := make([]string, config.EmbeddingBatchSize*2+5)
	got := batches(texts)
	if len(got) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(got))
	}
	if len(got[2]) != 5 {
		t.Errorf("last batch should hold the remainder, got %d", len(got[2]))
	}
	if batches(nil) != nil {
		t.Error("no texts means no batches")
	}
}

func TestDoRetry(t *testing.T) {
	log := logger_i.NewLogger("test")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "quota"), true},
		{"grpc invalid", status.Error(codes.InvalidArgument, "bad"), false},
		{"http 429", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, true},
		{"http 500", genai.APIError{Code: 500}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := doRetry(tt.err, log); got != tt.want {
			t.Errorf("%s: doRetry = %v; want %v", tt.name, got, tt.want)
		}
	}
}

func TestToVectors(t *testing.T) {
	res := &genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{
		{Values: []float32{1, 2}},
		{Values: []float32{3, 4}},
	}}
	vectors, err := toVectors(res, 2)
	if err != nil {
		t.Fatal(err)
	}
	if vectors[1][0] != 3 {
		t.Errorf("unexpected vectors %v", vectors)
	}
	if _, err := toVectors(res, 3); err == nil {
		t.Error("count mismatch must fail")
	}
	if _, err := toVectors(nil, 1); err == nil {
		t.Error("nil response must fail")
	}
}

func TestEmbed_AfterShutdown(t *testing.T) {
	logger = logger_i.NewLogger("test")
	c := &client{model: "embedding-test"}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		closeClient(ctx, c)
		close(done)
	}()
	cancel()
	<-done

	if _, err := c.EmbedQuery(context.Background(), "query"); !errors.Is(err, errClientClosed) {
		t.Errorf("expected errClientClosed, got %v", err)
	}
}
