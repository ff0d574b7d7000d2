package middleware

import (
	"github.com/gin-gonic/gin"
)

// ProtectedHealthInfo marks responses that carry patient data so that no
// browser or proxy stores them.
func ProtectedHealthInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
