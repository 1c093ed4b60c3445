package ocr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/akolanti/localrag/internal/metrics"
	"github.com/akolanti/localrag/pkg/logger_i"
)

type SleepFunc func(ctx context.Context, d time.Duration) error

type RetryController struct {
	limiter     *Limiter
	maxAttempts int
	sleep       SleepFunc
	now         func() time.Time
	logger      *logger_i.Logger
}

func NewRetryController(limiter *Limiter) *RetryController {
	return &RetryController{
		limiter:     limiter,
		maxAttempts: config.MaxOCRAttempts,
		sleep:       sleepContext,
		now:         time.Now,
		logger:      logger_i.NewLogger("OCR Retry"),
	}
}

// WithSleep swaps the backoff sleeper, used by tests to observe delays.
func (c *RetryController) WithSleep(sleep SleepFunc) *RetryController {
	c.sleep = sleep
	return c
}

func (c *RetryController) WithClock(now func() time.Time) *RetryController {
	c.now = now
	return c
}

func (c *RetryController) Limiter() *Limiter {
	return c.limiter
}

// CallWithRetry runs call under the shared limiter. Rate-limited attempts are
// retried after the provider's hint; any other error is returned as is.
func (c *RetryController) CallWithRetry(ctx context.Context, page int, call func(ctx context.Context) (string, error)) (string, error) {
	log := c.logger.WithTrace(ctx).With("page", page+1)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		text, err := c.attempt(ctx, call)
		if err == nil {
			metrics.CaptureOCRCall("success")
			return text, nil
		}

		var rateLimited *ragErrors.RateLimitError
		if !errors.As(err, &rateLimited) {
			metrics.CaptureOCRCall("error")
			return "", err
		}
		metrics.IncrementOCRRateLimited()
		lastErr = err
		if attempt == c.maxAttempts {
			break
		}

		delay := RetryDelay(rateLimited.RetryAfter, c.now())
		log.Warn("OCR rate limited, backing off", "retryAfter", delay, "attempt", attempt, "maxAttempts", c.maxAttempts)
		if err := c.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("ocr backoff interrupted: %w", err)
		}
	}

	metrics.CaptureOCRCall("exhausted")
	return "", fmt.Errorf("page %d: %w after %d attempts: %w", page+1, ragErrors.ErrRetriesExhausted, c.maxAttempts, lastErr)
}

func (c *RetryController) attempt(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return "", fmt.Errorf("acquire ocr limiter: %w", err)
	}
	defer c.limiter.Release()

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("ocr", time.Since(start)) }()
	return call(ctx)
}

// RetryDelay reads a Retry-After style hint: numeric seconds, else an HTTP date
// relative to now. Negative or unparseable hints give zero.
func RetryDelay(hint string, now time.Time) time.Duration {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(hint, 64); err == nil {
		if secs <= 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(hint); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
