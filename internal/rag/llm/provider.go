package llm

import "context"

// OCRProvider converts the bytes of a single-page PDF into markdown text.
// A throttled call fails with *ragErrors.RateLimitError.
type OCRProvider interface {
	Submit(ctx context.Context, pageBytes []byte, instruction string) (string, error)
}
