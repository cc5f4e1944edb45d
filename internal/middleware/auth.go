package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/rental-messaging-backend/pkg/utils"
)

const userIDKey = "userId"

// AuthMiddleware accepts a Bearer JWT and stores the caller id under
// "userId". Accounts live in another service, so the id is trusted as signed.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(userIDKey, claims.CallerID())
		c.Set("claims", claims)
		c.Next()
	}
}

// UserID returns the authenticated caller, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
