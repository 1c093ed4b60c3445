package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/akolanti/localrag/internal/adapter"
	"github.com/akolanti/localrag/internal/adapter/utils"
	"github.com/akolanti/localrag/internal/api"
	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/jobModel"
	"github.com/akolanti/localrag/internal/rag"
	"github.com/akolanti/localrag/pkg/logger_i"
)

var (
	logRH      = logger_i.NewLogger("RequestHandler")
	ragService rag.Service
	ragOnce    sync.Once
)

// newJobData keeps the queueing side independent of the HTTP request.
type newJobData struct {
	id      string
	traceId string
	jobType jobModel.JobType
	payload jobModel.JobPayload
}

func InitRequestHandler(service rag.Service) {
	ragOnce.Do(func() {
		ragService = service
	})
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{Message: "ok"})
}

func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, traceOf(r.Context()))

	logRH.Debug("Get Status Request", "URL path", r.URL.Path)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// PostIndexHandler queues an index job and answers 202 with the status url.
func PostIndexHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.IndexRequest
	if err := decodeBody(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	jobType, payload, err := adapter.ToJobPayload(req)
	if err != nil {
		logRH.Warn("Bad index request", "err", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", err.Error())
		return
	}

	newJob := newJobData{
		id:      utils.GetNewUUID(),
		traceId: traceOf(r.Context()),
		jobType: jobType,
		payload: payload,
	}
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

func CreateCollectionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.CreateCollectionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	if err := ragService.CreateCollection(r.Context(), req.Name); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusCreated, api.MessageResponse{Message: "Collection '" + req.Name + "' created"})
}

func ListCollectionsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	collections, err := ragService.ListCollections(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if collections == nil {
		collections = []commonModels.Collection{}
	}
	writeJsonResponse(w, http.StatusOK, collections)
}

func GetCollectionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	info, err := ragService.GetCollectionInfo(r.Context(), utils.GetChiURLParam(r, "name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, info)
}

func DeleteCollectionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	name := utils.GetChiURLParam(r, "name")
	removed, err := ragService.DeleteCollection(r.Context(), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{
		Message: "Collection '" + name + "' deleted (" + strconv.Itoa(removed) + " documents removed)",
	})
}

func ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	docs, err := ragService.ListDocuments(r.Context(), utils.GetChiURLParam(r, "name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.DocumentsResponse{Documents: docs})
}

// RemoveDocumentsHandler runs inline; removal never calls an external provider.
func RemoveDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.RemoveDocumentsRequest
	if err := decodeBody(r, &req); err != nil || len(req.FilePaths) == 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "", "file_paths is required")
		return
	}
	result, err := ragService.RemoveDocuments(r.Context(), req.FilePaths, utils.GetChiURLParam(r, "name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, result)
}

func SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.SearchRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Query) == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "query is required")
		return
	}

	var (
		results []commonModels.SearchResult
		err     error
	)
	if req.Collection == "" {
		results, err = ragService.Search(r.Context(), req.Query, req.TopK)
	} else {
		results, err = ragService.SearchCollection(r.Context(), req.Query, req.Collection, req.TopK)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.SearchResponse{Results: results})
}
