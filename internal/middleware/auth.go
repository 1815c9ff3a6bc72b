package middleware

import (
	"net/http"
	"strings"

	"github.com/clawearning/backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// ServiceContextKey holds the authenticated collaborator name
const ServiceContextKey = "service"

// ServiceAuth verifies service JWTs issued to trusted collaborators
func ServiceAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		claims, err := utils.ValidateServiceToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ServiceContextKey, claims.Service)
		c.Next()
	}
}

// extractToken gets the bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
