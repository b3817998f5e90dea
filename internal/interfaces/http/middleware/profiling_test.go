package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRouteResource(t *testing.T) {
	tests := map[string]string{
		"/api/v1/cart/items/:id":   "cart",
		"/api/v1/products":         "products",
		"/api/v2/admin/orders/:id": "admin",
		"/csrf-token":              "csrf-token",
		"/api/v1/:id":              "",
		"/":                        "",
	}
	for route, want := range tests {
		assert.Equal(t, want, routeResource(route), route)
	}
}

func profilingLabelsRouter(enabled bool, seen map[string]string) *gin.Engine {
	router := gin.New()
	router.Use(Profiling(enabled))
	handler := func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
			seen[key] = value
			return true
		})
		c.Status(http.StatusOK)
	}
	router.GET("/api/v1/products/:slug", handler)
	router.GET("/health", handler)
	return router
}

func TestProfiling_LabelsRequest(t *testing.T) {
	seen := map[string]string{}
	router := profilingLabelsRouter(true, seen)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/mug", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{
		"method":   "GET",
		"route":    "/api/v1/products/:slug",
		"resource": "products",
	}, seen)
}

func TestProfiling_SkipsHealthAndDisabled(t *testing.T) {
	seen := map[string]string{}
	router := profilingLabelsRouter(true, seen)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, seen)

	router = profilingLabelsRouter(false, seen)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/mug", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, seen)
}
