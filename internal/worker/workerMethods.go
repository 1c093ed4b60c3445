package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/jobModel"
	"github.com/akolanti/localrag/internal/metrics"
)

func executeJob(job jobModel.Job) {
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	log := logger.WithTrace(ctx)
	log.Debug("Processing job", "jobId", job.Id, "type", job.JobType)

	saveJobState(ctx, job, jobModel.JobStatusRunning)

	job = _processor.ProcessIndexJob(ctx, job)

	job.EndTime = time.Now()
	if job.Status == jobModel.JobStatusError {
		saveJobState(ctx, job, jobModel.JobStatusError)
		return
	}
	saveJobState(ctx, job, jobModel.JobStatusComplete)
}

func removeWorker(reason string) {
	atomic.AddInt64(&currentWorkerCount, -1)
	releaseWorker(reason)
}

// releaseWorker runs after the worker count was already decremented.
func releaseWorker(reason string) {
	metrics.DecrementActiveWorkerCount()
	logger.Info("Removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&currentWorkerCount))
	workerWaitGroup.Done()
}

func saveJobState(ctx context.Context, job jobModel.Job, jobStatus jobModel.JobStatus) {
	job.Status = jobStatus
	if err := _queue.Store.SaveJob(ctx, job); err != nil {
		logger.WithTrace(ctx).Error("Failed to update job status", "err", err)
	}
}
