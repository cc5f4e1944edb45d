package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadOnlyMode blocks message creation while the store is under
// maintenance. Listing endpoints keep working.
func ReadOnlyMode(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error": "Messaging is read-only during maintenance. Please try again later.",
		})
	}
}
