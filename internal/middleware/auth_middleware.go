package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fixgearlabs/fixgear-cart/internal/app/session"
	apperrors "github.com/fixgearlabs/fixgear-cart/internal/errors"
	"github.com/fixgearlabs/fixgear-cart/pkg/util"
	"github.com/gin-gonic/gin"
)

// Context keys for session information
const (
	UserIDKey       = "user_id"
	SessionTokenKey = "session_token"
)

type AuthMiddleware struct {
	resolver *session.Resolver
}

func NewAuthMiddleware(resolver *session.Resolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

func extractToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		return parts[1], true
	}

	// WebSocket clients cannot set headers; allow a query parameter there.
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// Authenticate resolves the session token to an identity (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := extractToken(c)
		if !ok {
			log.Warn("Missing or malformed authorization", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		identity, err := m.resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			log.Warn("Session resolution failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			switch {
			case errors.Is(err, util.ErrExpiredToken):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Sesi kedaluwarsa, silakan login kembali")
			case errors.Is(err, session.ErrTokenRevoked):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "Sesi sudah berakhir, silakan login kembali")
			default:
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Sesi tidak valid")
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, identity)
		c.Set(SessionTokenKey, token)

		log.Debug("Session resolved", map[string]interface{}{
			"user_id": identity,
		})

		c.Next()
	}
}

// OptionalAuthenticate resolves the session token if present. Missing or
// invalid tokens leave the request anonymous instead of rejecting it.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := extractToken(c)
		if !ok {
			c.Next()
			return
		}

		identity, err := m.resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			log.Debug("Optional session resolution failed, continuing as guest", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		c.Set(UserIDKey, identity)
		c.Set(SessionTokenKey, token)
		c.Next()
	}
}

// GetUserID returns the authenticated identity from context, if any
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// GetSessionToken returns the raw session token from context, if any
func GetSessionToken(c *gin.Context) (string, bool) {
	v, exists := c.Get(SessionTokenKey)
	if !exists {
		return "", false
	}
	token, ok := v.(string)
	return token, ok && token != ""
}
