package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutes(t *testing.T) {
	r := Routes()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/health"},
		{http.MethodGet, "/metrics"},
		{http.MethodPost, "/collections/"},
		{http.MethodGet, "/collections/"},
		{http.MethodGet, "/collections/papers"},
		{http.MethodDelete, "/collections/papers"},
		{http.MethodGet, "/collections/papers/documents"},
		{http.MethodDelete, "/collections/papers/documents"},
		{http.MethodPost, "/search"},
		{http.MethodPost, "/index"},
		{http.MethodGet, "/status/abc"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			assert.True(t, r.Match(rctx, tt.method, tt.path))
		})
	}

	rctx := chi.NewRouteContext()
	assert.False(t, r.Match(rctx, http.MethodPut, "/search"))
}

func TestRoutes_MetricsServed(t *testing.T) {
	// a second router must not collide with the first
	require.NotPanics(t, func() { _ = Routes() })

	rec := httptest.NewRecorder()
	Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
