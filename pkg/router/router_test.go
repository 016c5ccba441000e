package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPattern(t *testing.T) {
	assert.True(t, matchPattern("/api/v1/runs/abc", "/api/v1/runs/*"))
	assert.True(t, matchPattern("/api/v1/runs/abc/errors", "/api/v1/runs/*/errors"))
	assert.True(t, matchPattern("/api/v1/runs/abc/def", "/api/v1/runs/*"), "trailing wildcard swallows the rest")
	assert.False(t, matchPattern("/api/v1/runs/abc/errors", "/api/v1/runs/*/results"))
	assert.False(t, matchPattern("/api/v2/runs/abc", "/api/v1/runs/*"))
}

func TestRouterDispatch(t *testing.T) {
	r := New()
	r.GET("/api/v1/runs", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.GET("/api/v1/runs/*/errors", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("errors"))
	})

	rec := httptest.NewRecorder()
	r.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/abc/errors", nil))
	assert.Equal(t, "errors", rec.Body.String())

	rec = httptest.NewRecorder()
	r.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	r.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
