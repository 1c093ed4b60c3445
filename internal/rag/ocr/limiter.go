package ocr

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds simultaneous calls to the cloud OCR provider across every file and page.
// Build one per process and pass it by reference.
type Limiter struct {
	sem  *semaphore.Weighted
	size int64
}

func NewLimiter(size int) *Limiter {
	if size < 1 {
		size = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

func (l *Limiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *Limiter) Release() {
	l.sem.Release(1)
}

func (l *Limiter) Size() int {
	return int(l.size)
}
