package azureDI

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/akolanti/localrag/internal/metrics"
	"github.com/akolanti/localrag/internal/rag/structured"
	"github.com/akolanti/localrag/pkg/logger_i"
)

const keyHeader = "Ocp-Apim-Subscription-Key"

type Client struct {
	endpoint     string
	key          string
	httpClient   *http.Client
	pollInterval time.Duration
	logger       *logger_i.Logger
}

// NewClient returns nil when the endpoint or key is missing.
func NewClient(endpoint string, key string, httpClient *http.Client) structured.Provider {
	if endpoint == "" || key == "" {
		return nil
	}
	return newClient(endpoint, key, httpClient, config.AzureDIPollInterval)
}

func newClient(endpoint string, key string, httpClient *http.Client, poll time.Duration) *Client {
	return &Client{
		endpoint:     strings.TrimRight(endpoint, "/"),
		key:          key,
		httpClient:   httpClient,
		pollInterval: poll,
		logger:       logger_i.NewLogger("azure_document_intelligence"),
	}
}

func (c *Client) analyzeURL() string {
	q := url.Values{}
	q.Set("api-version", config.AzureDIAPIVersion)
	q.Set("outputContentFormat", "markdown")
	q.Set("stringIndexType", "unicodeCodePoint")
	return fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?%s", c.endpoint, config.AzureDIModel, q.Encode())
}

func (c *Client) Analyze(ctx context.Context, documentBytes []byte) (*commonModels.StructuredResult, error) {
	log := c.logger.WithTrace(ctx)
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("azure_di", time.Since(start)) }()

	operation, err := c.submit(ctx, documentBytes)
	if err != nil {
		return nil, err
	}
	log.Debug("Analysis submitted", "operation", operation)

	for {
		res, done, err := c.poll(ctx, operation)
		if err != nil {
			return nil, err
		}
		if done {
			log.Debug("Analysis complete", "tables", len(res.Tables))
			return res, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) submit(ctx context.Context, documentBytes []byte) (string, error) {
	body, err := json.Marshal(analyzeRequest{Base64Source: base64.StdEncoding.EncodeToString(documentBytes)})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.analyzeURL(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(keyHeader, c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("document intelligence submit: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusAccepted); err != nil {
		return "", err
	}
	operation := resp.Header.Get("Operation-Location")
	if operation == "" {
		return "", fmt.Errorf("document intelligence submit: missing Operation-Location header")
	}
	return operation, nil
}

func (c *Client) poll(ctx context.Context, operation string) (*commonModels.StructuredResult, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operation, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set(keyHeader, c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("document intelligence poll: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return nil, false, err
	}

	var op analyzeOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, false, fmt.Errorf("document intelligence poll: decode: %w", err)
	}

	switch strings.ToLower(op.Status) {
	case "succeeded":
		if op.AnalyzeResult == nil {
			return nil, false, fmt.Errorf("document intelligence: succeeded without a result")
		}
		return op.AnalyzeResult.toStructured(), true, nil
	case "failed", "canceled":
		msg := op.Status
		if op.Error != nil {
			msg = op.Error.Code + ": " + op.Error.Message
		}
		return nil, false, fmt.Errorf("document intelligence analysis %s", msg)
	default:
		return nil, false, nil
	}
}

// checkStatus turns throttling into a RateLimitError carrying Retry-After.
func checkStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	cause := fmt.Errorf("document intelligence returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode == http.StatusTooManyRequests {
		return &ragErrors.RateLimitError{RetryAfter: resp.Header.Get("Retry-After"), Err: cause}
	}
	return cause
}
