package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newObservedRouter(level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	l := zap.New(core)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(GinRequestIDKey, "req-42")
		c.Next()
	})
	r.Use(Recovery(l), GinMiddleware(l))
	return r, logs
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs success at info with route", func(t *testing.T) {
		r, logs := newObservedRouter(zapcore.DebugLevel)
		r.GET("/products/:slug", func(c *gin.Context) {
			assert.Equal(t, "req-42", RequestID(c.Request.Context()))
			FromGin(c).Debug("inside handler")
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/mug?x=1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		entries := logs.FilterMessage("HTTP request").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		fields := entries[0].ContextMap()
		assert.Equal(t, "/products/:slug", fields["route"])
		assert.Equal(t, "x=1", fields["query"])
		assert.Equal(t, "req-42", fields["request_id"])
		assert.Equal(t, 1, logs.FilterMessage("inside handler").Len())
	})

	t.Run("logs client errors at warn", func(t *testing.T) {
		r, logs := newObservedRouter(zapcore.DebugLevel)
		r.GET("/cart", func(c *gin.Context) { c.Status(http.StatusNotFound) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

		entries := logs.FilterMessage("HTTP request").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})
}

func TestRecovery(t *testing.T) {
	r, logs := newObservedRouter(zapcore.DebugLevel)
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestFromGin_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, FromGin(c))
}
