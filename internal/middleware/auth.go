package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TheoAsp/happybox-go/internal/auth"
)

const (
	authSubjectKey = "auth_subject"
	authIsAdminKey = "auth_is_admin"
)

// RequireAdmin validates the Bearer token and gates manual overrides behind
// the admin capability. Failures stay deliberately generic.
func RequireAdmin(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format. Use: Bearer <token>"})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			if err == auth.ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			c.Abort()
			return
		}

		if !claims.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Set(authSubjectKey, claims.Subject)
		c.Set(authIsAdminKey, claims.IsAdmin)

		c.Next()
	}
}

// GetAuthSubject retrieves the authenticated operator from context
func GetAuthSubject(c *gin.Context) (string, bool) {
	subject, exists := c.Get(authSubjectKey)
	if !exists {
		return "", false
	}
	return subject.(string), true
}

// SourceAddress is the throttling key for a request: the first hop of
// X-Forwarded-For when present, the peer address otherwise.
func SourceAddress(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx != -1 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	return c.ClientIP()
}
