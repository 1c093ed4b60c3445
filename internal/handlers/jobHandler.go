package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/jobModel"
	"github.com/akolanti/localrag/internal/job"
	"github.com/akolanti/localrag/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("JobHandler")
)

type JobHandler struct {
	queue *job.Queue
}

func InitJobHandler(queue *job.Queue) {
	once.Do(func() {
		handlerInstance = &JobHandler{queue: queue}
		logJH.Info("Starting job handler")
	})
}

func CreateNewJob(newJob newJobData) {
	logJH.With("traceId", newJob.traceId, "job id", newJob.id).Info("To create new job", "type", newJob.jobType)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.queue.Status(ctxC, id)
	}
	return result, false
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	//a lost status record is logged by the queue, the job still runs
	_ = h.queue.Submit(ctx, jobModel.Job{
		Id:          newJob.id,
		TraceId:     newJob.traceId,
		JobType:     newJob.jobType,
		JobPayload:  newJob.payload,
		CreatedTime: time.Now(),
	})
	logJH.With("traceId", newJob.traceId).Info("Queued job", "jobId", newJob.id)
}
