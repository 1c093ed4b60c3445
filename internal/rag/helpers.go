package rag

import (
	"errors"
	"net/http"

	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/jobModel"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/akolanti/localrag/pkg/logger_i"
)

func returnOutput(job jobModel.Job, result commonModels.BatchResult) jobModel.Job {
	job.JobPayload.Result = &result
	job.CurrentStep = jobModel.Complete
	return job
}

func logStep(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("ProcessIndexJob", "Current Status", job.CurrentStep)
	return job
}

func (s *service) jobError(job jobModel.Job, err error, log *logger_i.Logger) jobModel.Job {
	log.Error("Index job failed", "error", err)

	code, retry := jobErrorCode(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "Internal Server Error"
	}
	job.Error = jobModel.JobError{
		Code:    code,
		Message: message,
		Retry:   retry,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

// jobErrorCode keeps caller mistakes visible and hides internal failures.
func jobErrorCode(err error) (int, bool) {
	switch {
	case errors.Is(err, ragErrors.ErrDirectoryNotFound),
		errors.Is(err, ragErrors.ErrCollectionNotFound):
		return http.StatusNotFound, false
	case errors.Is(err, ragErrors.ErrNotADirectory),
		errors.Is(err, ragErrors.ErrNoSupportedFiles),
		errors.Is(err, ragErrors.ErrInvalidCollectionName):
		return http.StatusBadRequest, false
	}
	return http.StatusInternalServerError, true
}
