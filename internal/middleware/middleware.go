package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/localrag/internal/handlers"
	"github.com/akolanti/localrag/internal/metrics"
	"github.com/akolanti/localrag/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var GetHandler = Wrap(handlers.GetHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var PostIndexHandler = Wrap(handlers.PostIndexHandler)

var CreateCollectionHandler = Wrap(handlers.CreateCollectionHandler)
var ListCollectionsHandler = Wrap(handlers.ListCollectionsHandler)
var GetCollectionHandler = Wrap(handlers.GetCollectionHandler)
var DeleteCollectionHandler = Wrap(handlers.DeleteCollectionHandler)
var ListDocumentsHandler = Wrap(handlers.ListDocumentsHandler)
var RemoveDocumentsHandler = Wrap(handlers.RemoveDocumentsHandler)
var SearchHandler = Wrap(handlers.SearchHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if !handleBadRequest(re) {
			metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

// processRequest runs trace, auth and rate limiting in order and stops at the first failure.
func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Debug("New request received")

	for _, step := range []func(requestResponseStruct) requestResponseStruct{injectTrace, authenticate, rateLimiter} {
		re = step(re)
		if re.badRequest.isBadRequest {
			return re
		}
	}
	return re
}
