package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/config"
)

var (
	// ErrCSRFSecretMissing is returned when anti-forgery tokens cannot be signed
	ErrCSRFSecretMissing = errors.New("csrf secret is not configured")
	// ErrCSRFSubjectMissing is returned when a token would not be bound to anyone
	ErrCSRFSubjectMissing = errors.New("csrf token subject is required")
)

const csrfAudience = "csrf"

// CSRFSubjectUser binds anti-forgery tokens to a signed-in user
func CSRFSubjectUser(userID string) string {
	return "user:" + userID
}

// CSRFSubjectSession binds anti-forgery tokens to an anonymous cart session
func CSRFSubjectSession(sessionID string) string {
	return "session:" + sessionID
}

// CSRFService issues and checks short-lived signed anti-forgery tokens.
// Tokens are stateless HS256 JWTs with their own audience, so an access
// token is never accepted in their place. Each token carries the subject it
// was issued to and only verifies for that subject.
type CSRFService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewCSRFService creates a new CSRF service
func NewCSRFService(cfg config.CSRFConfig, issuer string) *CSRFService {
	return &CSRFService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TokenTTL,
		issuer: issuer,
		now:    time.Now,
	}
}

// Generate returns a fresh token for subject
func (s *CSRFService) Generate(subject string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrCSRFSecretMissing
	}
	if subject == "" {
		return "", ErrCSRFSubjectMissing
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   subject,
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{csrfAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify reports whether token was issued by this service to subject and
// has not expired
func (s *CSRFService) Verify(token, subject string) bool {
	if len(s.secret) == 0 || token == "" || subject == "" {
		return false
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(csrfAudience),
		jwt.WithIssuer(s.issuer),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	return err == nil && parsed.Valid
}

// TTL returns how long issued tokens stay valid
func (s *CSRFService) TTL() time.Duration {
	return s.ttl
}
