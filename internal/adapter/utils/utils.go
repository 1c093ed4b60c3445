package utils

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GetNewUUID returns a random id, used for index jobs and request traces.
func GetNewUUID() string {
	return uuid.NewString()
}

// GetChiURLParam reads a route parameter such as the collection {name} or
// the job {id}.
func GetChiURLParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

// NewRouter returns a router that already serves /metrics. The API routes
// are mounted by server.Routes.
func NewRouter() *chi.Mux {
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	return router
}
