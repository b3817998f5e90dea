package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

const testSessionID = "5b8f0e9c-9a51-4d3e-8d0a-6f2c1b7e4a90"

// testViewer describes who the test request is made by. A nil viewer is anonymous.
type testViewer struct {
	userID uuid.UUID
	role   identity.Role
	jti    string
}

func customer(id uuid.UUID) *testViewer {
	return &testViewer{userID: id, role: identity.RoleCustomer, jti: "jti-" + id.String()}
}

func admin() *testViewer {
	return &testViewer{userID: uuid.New(), role: identity.RoleAdmin, jti: "jti-admin"}
}

// newTestRouter builds an engine that injects the cart session and the viewer's
// claims the way the session and JWT middleware would
func newTestRouter(viewer *testViewer) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.CartSessionKey, testSessionID)
		if viewer != nil {
			claims := &auth.Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					ID:        viewer.jti,
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
				},
				UserID: viewer.userID.String(),
				Role:   viewer.role,
			}
			c.Set(middleware.JWTClaimsKey, claims)
			c.Set(middleware.JWTUserIDKey, claims.UserID)
		}
		c.Next()
	})
	return router
}

// performRequest sends body (marshalled to JSON unless it is a string) to the router
func performRequest(router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
