package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfilingLabels(t *testing.T) {
	var route, method string
	var labelled bool
	router := gin.New()
	router.Use(ProfilingLabels())
	router.GET("/receipts/by-number/:number", func(c *gin.Context) {
		route, labelled = pprof.Label(c.Request.Context(), "route")
		method, _ = pprof.Label(c.Request.Context(), "method")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/receipts/by-number/00000001", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, labelled)
	assert.Equal(t, "/receipts/by-number/:number", route)
	assert.Equal(t, http.MethodGet, method)
}

func TestProfilingLabels_NoRoute(t *testing.T) {
	router := gin.New()
	router.Use(ProfilingLabels())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
