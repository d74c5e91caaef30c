package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"familyfitness/wod-server/internal/service"
	"familyfitness/wod-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// Constants for context keys
const (
	ContextUserIDKey = "userID"
)

// AuthMiddleware creates a Gin middleware for JWT authentication. Tokens are
// HS256-signed by the identity provider; the user behind the token is resolved
// (and provisioned on first sight) through users.
func AuthMiddleware(jwtSecret, issuer string, users service.UserService, log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log).Named("auth")

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}
		if !token.Valid || !claims.VerifyExpiresAt(time.Now().Unix(), true) {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing expiry")
			return
		}
		if issuer != "" && !claims.VerifyIssuer(issuer, true) {
			abortWithError(c, http.StatusUnauthorized, "Token issuer is not accepted")
			return
		}

		user, err := users.ResolveFromClaims(c.Request.Context(), identityFromClaims(claims))
		if err != nil {
			if errors.Is(err, service.ErrIdentityIncomplete) {
				abortWithError(c, http.StatusUnauthorized, err.Error())
				return
			}
			log.Error("Failed to resolve user from token", zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, "Failed to resolve user")
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}

func identityFromClaims(claims jwt.MapClaims) service.IdentityClaims {
	str := func(key string) string {
		v, _ := claims[key].(string)
		return v
	}
	return service.IdentityClaims{
		Subject:           str("sub"),
		ObjectID:          str("oid"),
		Email:             str("email"),
		PreferredUsername: str("preferred_username"),
		Name:              str("name"),
	}
}

// RequestLogger logs one line per request once the handler chain has finished.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log).Named("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int(logger.FieldStatus, c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if userID := c.GetString(ContextUserIDKey); userID != "" {
			fields = append(fields, zap.String(logger.FieldUserID, userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String(logger.FieldError, c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok || idStr == "" {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}
