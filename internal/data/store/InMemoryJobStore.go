package store

import (
	"context"
	"time"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/jobModel"
	"github.com/akolanti/localrag/pkg/logger_i"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var inMemLogger = logger_i.NewLogger("InMem JobStore")

// InMemoryJobStore keeps index job records for the life of the process. Like
// the redis store, a record expires a day after its last update, and the
// oldest records go first once the store is full.
type InMemoryJobStore struct {
	jobs *expirable.LRU[string, jobModel.Job]
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return newInMemoryJobStore(config.InMemoryJobStoreSize, config.RedisJobStoreTTL)
}

func newInMemoryJobStore(size int, ttl time.Duration) *InMemoryJobStore {
	return &InMemoryJobStore{jobs: expirable.NewLRU[string, jobModel.Job](size, nil, ttl)}
}

func (s *InMemoryJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	s.jobs.Add(job.Id, job)
	inMemLogger.WithTrace(ctx).Debug("Saved index job", "jobId", job.Id, "status", job.Status, "step", job.CurrentStep)
	return nil
}

func (s *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	job, found := s.jobs.Get(jobId)
	if !found {
		inMemLogger.WithTrace(ctx).Debug("Index job not found", "jobId", jobId)
	}
	return job, found
}

func (s *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	s.jobs.Remove(jobID)
}
