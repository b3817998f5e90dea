package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// CartSessionKey is the gin context key holding the anonymous cart session id
const CartSessionKey = "cart_session_id"

// DefaultCartSessionCookie is used when the cookie config names none
const DefaultCartSessionCookie = "cart_session"

// CartSession makes sure every request has an anonymous cart session id.
// The id comes from the session cookie; a missing or malformed cookie is
// replaced by a fresh one.
func CartSession(cfg config.CookieConfig) gin.HandlerFunc {
	name := cfg.Name
	if name == "" {
		name = DefaultCartSessionCookie
	}
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	sameSite := parseSameSite(cfg.SameSite)
	maxAge := int(cfg.MaxAge.Seconds())

	return func(c *gin.Context) {
		sessionID, err := c.Cookie(name)
		if err != nil || uuid.Validate(sessionID) != nil {
			sessionID = uuid.NewString()
			c.SetSameSite(sameSite)
			c.SetCookie(name, sessionID, maxAge, path, cfg.Domain, cfg.Secure, true)
		}
		c.Set(CartSessionKey, sessionID)
		c.Next()
	}
}

// GetCartSessionID returns the anonymous cart session id for the request
func GetCartSessionID(c *gin.Context) string {
	return c.GetString(CartSessionKey)
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
