package ocr

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestRetryDelay(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		hint string
		want time.Duration
	}{
		{"empty", "", 0},
		{"integer seconds", "2", 2 * time.Second},
		{"padded seconds", "  7 ", 7 * time.Second},
		{"fractional seconds", "1.5", 1500 * time.Millisecond},
		{"negative seconds", "-3", 0},
		{"future http date", now.Add(30 * time.Second).Format(http.TimeFormat), 30 * time.Second},
		{"past http date", now.Add(-time.Hour).Format(http.TimeFormat), 0},
		{"garbage", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RetryDelay(tt.hint, now))
		})
	}
}

func TestCallWithRetry_SucceedsAfterRateLimit(t *testing.T) {
	sleeper := &recordingSleeper{}
	rc := NewRetryController(NewLimiter(2)).WithSleep(sleeper.Sleep)

	calls := 0
	text, err := rc.CallWithRetry(context.Background(), 1, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &ragErrors.RateLimitError{RetryAfter: "2"}
		}
		return "# page two", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "# page two", text)
	assert.Equal(t, 2, calls)
	require.Len(t, sleeper.delays, 1)
	assert.GreaterOrEqual(t, sleeper.delays[0], 2*time.Second)
}

func TestCallWithRetry_Exhausted(t *testing.T) {
	sleeper := &recordingSleeper{}
	rc := NewRetryController(NewLimiter(1)).WithSleep(sleeper.Sleep)

	calls := 0
	_, err := rc.CallWithRetry(context.Background(), 0, func(ctx context.Context) (string, error) {
		calls++
		return "", &ragErrors.RateLimitError{RetryAfter: "1"}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ragErrors.ErrRetriesExhausted)
	assert.Equal(t, 3, calls, "three attempts in total")
	assert.Len(t, sleeper.delays, 2, "no sleep after the last attempt")
}

func TestCallWithRetry_OtherErrorsNotRetried(t *testing.T) {
	sleeper := &recordingSleeper{}
	rc := NewRetryController(NewLimiter(1)).WithSleep(sleeper.Sleep)
	boom := errors.New("invalid argument")

	calls := 0
	_, err := rc.CallWithRetry(context.Background(), 0, func(ctx context.Context) (string, error) {
		calls++
		return "", boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ragErrors.ErrRetriesExhausted)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestCallWithRetry_HTTPDateHint(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	sleeper := &recordingSleeper{}
	rc := NewRetryController(NewLimiter(1)).WithSleep(sleeper.Sleep).WithClock(func() time.Time { return now })

	calls := 0
	_, err := rc.CallWithRetry(context.Background(), 0, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &ragErrors.RateLimitError{RetryAfter: now.Add(5 * time.Second).Format(http.TimeFormat)}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second}, sleeper.delays)
}

func TestCallWithRetry_LimiterBoundsConcurrency(t *testing.T) {
	rc := NewRetryController(NewLimiter(2))

	var inFlight, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			_, _ = rc.CallWithRetry(context.Background(), page, func(ctx context.Context) (string, error) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return "ok", nil
			})
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestCallWithRetry_RealSleepHonoursHint(t *testing.T) {
	rc := NewRetryController(NewLimiter(1))

	calls := 0
	start := time.Now()
	_, err := rc.CallWithRetry(context.Background(), 0, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &ragErrors.RateLimitError{RetryAfter: "0.05"}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestCallWithRetry_CancelDuringBackoff(t *testing.T) {
	rc := NewRetryController(NewLimiter(1))
	ctx, cancel := context.WithCancel(context.Background())

	_, err := rc.CallWithRetry(ctx, 0, func(ctx context.Context) (string, error) {
		cancel()
		return "", &ragErrors.RateLimitError{RetryAfter: "60"}
	})

	assert.ErrorIs(t, err, context.Canceled)
}
