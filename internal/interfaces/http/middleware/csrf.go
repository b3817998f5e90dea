package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// DefaultCSRFHeader is the request header carrying the anti-forgery token
const DefaultCSRFHeader = "X-CSRF-Token"

// CSRFVerifier checks anti-forgery tokens
type CSRFVerifier interface {
	Verify(token, subject string) bool
}

// CSRFSubject returns who anti-forgery tokens are bound to for this request:
// the signed-in user, else the anonymous cart session. It is empty when the
// JWT and session middleware did not run.
func CSRFSubject(c *gin.Context) string {
	if id := GetJWTUserID(c); id != "" {
		return auth.CSRFSubjectUser(id)
	}
	if id := GetCartSessionID(c); id != "" {
		return auth.CSRFSubjectSession(id)
	}
	return ""
}

// CSRF rejects unsafe requests that do not carry a valid anti-forgery token
// issued to the same user or cart session. GET, HEAD and OPTIONS pass through.
func CSRF(verifier CSRFVerifier, headerName string) gin.HandlerFunc {
	if headerName == "" {
		headerName = DefaultCSRFHeader
	}
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if !verifier.Verify(c.GetHeader(headerName), CSRFSubject(c)) {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeCSRFInvalid, "Missing or invalid anti-forgery token")
			return
		}
		c.Next()
	}
}
