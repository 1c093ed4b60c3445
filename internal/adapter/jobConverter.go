package adapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akolanti/localrag/internal/api"
	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id), //pass "status/job.Id"
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:        job.Id,
		JobType:   string(job.JobType),
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result: api.Result{
			Status: string(job.Status),
			Step:   string(job.CurrentStep),
			Batch:  job.JobPayload.Result,
		},
	}
}

// ToJobPayload validates an index request and picks the job type for it.
func ToJobPayload(req api.IndexRequest) (jobModel.JobType, jobModel.JobPayload, error) {
	if strings.TrimSpace(req.Collection) == "" {
		return "", jobModel.JobPayload{}, errors.New("collection is required")
	}
	hasFiles := len(req.FilePaths) > 0
	hasDir := strings.TrimSpace(req.DirectoryPath) != ""
	if hasFiles == hasDir {
		return "", jobModel.JobPayload{}, errors.New("exactly one of file_paths or directory_path is required")
	}
	method, ok := commonModels.ParseExtractionMethod(req.ExtractionMethod)
	if !ok {
		return "", jobModel.JobPayload{}, fmt.Errorf("unknown extraction_method %q", req.ExtractionMethod)
	}

	payload := jobModel.JobPayload{
		Collection:       req.Collection,
		FilePaths:        req.FilePaths,
		DirectoryPath:    req.DirectoryPath,
		GlobPattern:      req.GlobPattern,
		Recursive:        req.Recursive,
		Force:            req.Force,
		ExtractionMethod: method,
	}
	if hasDir {
		return jobModel.JobTypeIndexDirectory, payload, nil
	}
	return jobModel.JobTypeIndexFiles, payload, nil
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id: id,
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
