package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCSRF() *auth.CSRFService {
	return auth.NewCSRFService(config.CSRFConfig{Secret: "csrf-secret-for-tests", TokenTTL: time.Hour}, "test-issuer")
}

// identify stands in for the session and JWT middleware
func identify(sessionID, userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionID != "" {
			c.Set(CartSessionKey, sessionID)
		}
		if userID != "" {
			c.Set(JWTUserIDKey, userID)
		}
		c.Next()
	}
}

func TestCSRFSubject(t *testing.T) {
	tests := []struct {
		name    string
		session string
		user    string
		want    string
	}{
		{"user wins over session", "sess-1", "user-1", "user:user-1"},
		{"anonymous session", "sess-1", "", "session:sess-1"},
		{"nothing known", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			router := gin.New()
			router.Use(identify(tt.session, tt.user))
			router.GET("/", func(c *gin.Context) { got = CSRFSubject(c) })
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCSRF(t *testing.T) {
	svc := newTestCSRF()
	router := gin.New()
	router.Use(identify("sess-1", ""), CSRF(svc, ""))
	router.GET("/cart", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/cart/items", func(c *gin.Context) { c.Status(http.StatusCreated) })

	do := func(method, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/cart", nil)
		if method == http.MethodPost {
			req = httptest.NewRequest(method, "/cart/items", nil)
		}
		if token != "" {
			req.Header.Set(DefaultCSRFHeader, token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("safe method needs no token", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(http.MethodGet, "").Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := do(http.MethodPost, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "ERR_CSRF_INVALID")
	})

	t.Run("forged token", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do(http.MethodPost, "forged").Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := svc.Generate(auth.CSRFSubjectSession("sess-1"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, do(http.MethodPost, token).Code)
	})

	t.Run("token of another session", func(t *testing.T) {
		token, err := svc.Generate(auth.CSRFSubjectSession("sess-2"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, do(http.MethodPost, token).Code)
	})
}

func TestCSRF_SignedInUser(t *testing.T) {
	svc := newTestCSRF()
	router := gin.New()
	router.Use(identify("sess-1", "user-1"), CSRF(svc, ""))
	router.POST("/checkout", func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(subject string) int {
		token, err := svc.Generate(subject)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.Header.Set(DefaultCSRFHeader, token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send(auth.CSRFSubjectUser("user-1")))
	assert.Equal(t, http.StatusForbidden, send(auth.CSRFSubjectSession("sess-1")), "session token after sign-in")
	assert.Equal(t, http.StatusForbidden, send(auth.CSRFSubjectUser("user-2")))
}

func TestCSRF_NoSubject(t *testing.T) {
	svc := newTestCSRF()
	router := gin.New()
	router.Use(CSRF(svc, ""))
	router.POST("/cart/items", func(c *gin.Context) { c.Status(http.StatusCreated) })

	token, err := svc.Generate(auth.CSRFSubjectSession("sess-1"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
	req.Header.Set(DefaultCSRFHeader, token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRF_CustomHeader(t *testing.T) {
	svc := newTestCSRF()
	router := gin.New()
	router.Use(identify("sess-1", ""), CSRF(svc, "X-Shop-CSRF"))
	router.DELETE("/cart", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	token, err := svc.Generate(auth.CSRFSubjectSession("sess-1"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodDelete, "/cart", nil)
	req.Header.Set("X-Shop-CSRF", token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
