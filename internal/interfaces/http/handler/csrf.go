package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// TokenIssuer issues anti-forgery tokens
type TokenIssuer interface {
	Generate(subject string) (string, error)
	TTL() time.Duration
}

// CSRFHandler issues anti-forgery tokens for browser clients
type CSRFHandler struct {
	BaseHandler
	issuer     TokenIssuer
	headerName string
}

// NewCSRFHandler creates a new CSRFHandler
func NewCSRFHandler(issuer TokenIssuer, headerName string) *CSRFHandler {
	return &CSRFHandler{issuer: issuer, headerName: headerName}
}

// CSRFTokenResponse carries a fresh token and the header to send it in
type CSRFTokenResponse struct {
	Token      string    `json:"token"`
	HeaderName string    `json:"headerName"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// GetToken godoc
// @Summary      Issue an anti-forgery token
// @Description  Issues a token bound to the caller's user or cart session. A missing signing secret is a server misconfiguration and answered with 500.
// @Tags         security
// @Produce      json
// @Success      200 {object} dto.Response{data=CSRFTokenResponse}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /csrf-token [get]
func (h *CSRFHandler) GetToken(c *gin.Context) {
	token, err := h.issuer.Generate(middleware.CSRFSubject(c))
	if err != nil {
		if errors.Is(err, auth.ErrCSRFSecretMissing) {
			logger.FromGin(c).Error("Anti-forgery secret is not configured")
			h.ErrorWithCode(c, dto.ErrCodeCSRFUnavailable, "Anti-forgery tokens are not configured")
			return
		}
		logger.FromGin(c).Error("Failed to issue anti-forgery token", zap.Error(err))
		h.InternalError(c, "Failed to issue anti-forgery token")
		return
	}
	c.Header("Cache-Control", "no-store")
	h.Success(c, CSRFTokenResponse{
		Token:      token,
		HeaderName: h.headerName,
		ExpiresAt:  time.Now().Add(h.issuer.TTL()),
	})
}
