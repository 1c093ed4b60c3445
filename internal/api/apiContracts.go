package api

import (
	"time"

	"github.com/akolanti/localrag/internal/domain/commonModels"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	JobType   string            `json:"job_type,omitempty" example:"IndexFiles"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Result struct {
	Status string                    `json:"status"`
	Step   string                    `json:"step,omitempty"`
	Batch  *commonModels.BatchResult `json:"batch,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type ErrorResponse struct {
	Error JobOutgoingError `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SearchResponse struct {
	Results []commonModels.SearchResult `json:"results"`
}

type DocumentsResponse struct {
	Documents []commonModels.DocumentSummary `json:"documents"`
}

// requests---------------------

type CreateCollectionRequest struct {
	Name string `json:"name" validate:"required"`
}

// IndexRequest queues either a file list or a directory scan.
type IndexRequest struct {
	Collection       string   `json:"collection" validate:"required"`
	FilePaths        []string `json:"file_paths,omitempty"`
	DirectoryPath    string   `json:"directory_path,omitempty"`
	GlobPattern      string   `json:"glob_pattern,omitempty"`
	Recursive        bool     `json:"recursive,omitempty"`
	Force            bool     `json:"force,omitempty"`
	ExtractionMethod string   `json:"extraction_method,omitempty"`
}

type RemoveDocumentsRequest struct {
	FilePaths []string `json:"file_paths" validate:"required"`
}

type SearchRequest struct {
	Query      string `json:"query" validate:"required"`
	Collection string `json:"collection,omitempty"`
	TopK       int    `json:"top_k,omitempty"`
}
