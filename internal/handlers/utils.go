package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/akolanti/localrag/internal/adapter"
	"github.com/akolanti/localrag/internal/api"
	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/jobModel"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
)

const maxBodySize = 1 << 20

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "err", err)
	}
}

func decodeBody(r *http.Request, out any) error {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the request body", "err", err)
		}
	}(r.Body)
	return json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(out)
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func traceOf(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.With("traceId", traceOf(ctx)).Warn("context error", "err", ctx.Err())
		return false
	}
	return true
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// writeServiceError hides the message of anything that maps to a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	code := errorStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		logRH.Error("Request failed", "err", err)
		message = "Internal Server Error"
	}
	writeJsonResponse(w, code, api.ErrorResponse{Error: api.JobOutgoingError{Code: code, Message: message}})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ragErrors.ErrCollectionNotFound),
		errors.Is(err, ragErrors.ErrDocumentNotFound),
		errors.Is(err, ragErrors.ErrDirectoryNotFound),
		errors.Is(err, ragErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ragErrors.ErrInvalidCollectionName),
		errors.Is(err, ragErrors.ErrUnsupportedType),
		errors.Is(err, ragErrors.ErrNotADirectory),
		errors.Is(err, ragErrors.ErrNoSupportedFiles):
		return http.StatusBadRequest
	case errors.Is(err, ragErrors.ErrCollectionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ragErrors.ErrEmptyContent),
		errors.Is(err, ragErrors.ErrExtractionFailure),
		errors.Is(err, ragErrors.ErrProviderNotConfigured):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
