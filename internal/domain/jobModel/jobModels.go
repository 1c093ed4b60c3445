package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/localrag/internal/domain/commonModels"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	IndexInit       InternalStatus = "IndexInit"
	IndexProcessing InternalStatus = "IndexProcessing"
	RemoveInit      InternalStatus = "RemoveInit"
	RemoveRunning   InternalStatus = "RemoveProcessing"
	Error           InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeIndexFiles     JobType = "IndexFiles"
	JobTypeIndexDirectory JobType = "IndexDirectory"
	JobTypeRemove         JobType = "RemoveDocuments"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Collection       string                        `json:"collection"`
	FilePaths        []string                      `json:"file_paths,omitempty"`
	DirectoryPath    string                        `json:"directory_path,omitempty"`
	GlobPattern      string                        `json:"glob_pattern,omitempty"`
	Recursive        bool                          `json:"recursive,omitempty"`
	Force            bool                          `json:"force,omitempty"`
	ExtractionMethod commonModels.ExtractionMethod `json:"extraction_method,omitempty"`

	Result *commonModels.BatchResult `json:"result,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
