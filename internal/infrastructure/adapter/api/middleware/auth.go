package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	domainerr "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
)

const userIDKey = "userId"

// AuthConfig holds the session token verification settings
type AuthConfig struct {
	Secret   string
	Issuer   string // Optional expected "iss"
	Audience string // Optional expected "aud"
}

// TokenVerifier validates HS256 session tokens and extracts the subject
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier creates a verifier for tokens signed with cfg.Secret
func NewTokenVerifier(cfg AuthConfig) (*TokenVerifier, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &TokenVerifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify returns the token subject
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domainerr.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return "", fmt.Errorf("%w: invalid token", domainerr.ErrUnauthenticated)
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", fmt.Errorf("%w: token has no subject", domainerr.ErrUnauthenticated)
	}
	return subject, nil
}

// RequireAuth rejects requests without a valid bearer token
func RequireAuth(verifier *TokenVerifier, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			AbortWithError(c, fmt.Errorf("%w: missing bearer token", domainerr.ErrUnauthenticated))
			return
		}

		userID, err := verifier.Verify(tokenString)
		if err != nil {
			logger.Debug("Rejected session token", map[string]any{
				"error":      err.Error(),
				"request_id": GetRequestID(c),
			})
			AbortWithError(c, err)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user, or "" before RequireAuth ran
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
