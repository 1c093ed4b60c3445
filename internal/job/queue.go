package job

import (
	"context"
	"sync/atomic"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/jobModel"
	"github.com/akolanti/localrag/internal/metrics"
	"github.com/akolanti/localrag/pkg/logger_i"
)

var logger = logger_i.NewLogger("IndexQueue")

// Queue carries accepted index jobs from the HTTP handlers to the worker pool.
// Jobs is buffered. Once it is full Submit blocks, which pushes back on clients.
type Queue struct {
	Jobs  chan jobModel.Job
	Wake  chan bool
	Store jobModel.JobStore

	accepted atomic.Int64
}

func NewQueue(store jobModel.JobStore, buffer int) *Queue {
	return &Queue{
		Jobs:  make(chan jobModel.Job, buffer),
		Wake:  make(chan bool, 1),
		Store: store,
	}
}

// Submit records the job as queued, so /status sees it before a worker does,
// then hands it over. A failed save is returned but the job is still queued.
func (q *Queue) Submit(ctx context.Context, j jobModel.Job) error {
	j.Status = jobModel.JobStatusQueued
	if j.CurrentStep == "" {
		j.CurrentStep = firstStep(j.JobType)
	}
	err := q.Store.SaveJob(ctx, j)
	if err != nil {
		logger.WithTrace(ctx).Error("Failed to save queued job", "jobId", j.Id, "err", err)
	}

	metrics.IncrementJobsInQueue()
	q.Jobs <- j
	q.wake(j.JobType)
	return err
}

// Status looks a job up by id.
func (q *Queue) Status(ctx context.Context, id string) (jobModel.Job, bool) {
	return q.Store.GetJob(ctx, id)
}

// wake asks the dispatcher for one more worker. Index jobs run for minutes
// so each one asks. Removals only ask every RequestsPerNewWorkerCount.
func (q *Queue) wake(jobType jobModel.JobType) bool {
	n := q.accepted.Add(1)
	if jobType == jobModel.JobTypeRemove && n%config.RequestsPerNewWorkerCount != 0 {
		return false
	}
	metrics.StartDispatcherSignalCount()
	select {
	case q.Wake <- true:
		return true
	default:
		//a signal is already pending
		return false
	}
}

func firstStep(jobType jobModel.JobType) jobModel.InternalStatus {
	if jobType == jobModel.JobTypeRemove {
		return jobModel.RemoveInit
	}
	return jobModel.IndexInit
}
