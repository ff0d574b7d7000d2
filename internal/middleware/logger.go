package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/pkg/logger"
)

// Logger returns a middleware that logs HTTP requests. Request and response
// bodies carry patient data and are never logged.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		zl := log.Zerolog()
		event := zl.Info()
		msg := "Request processed"
		switch {
		case statusCode >= 500:
			event = zl.Error()
			msg = "Server error"
		case statusCode >= 400:
			event = zl.Warn()
			msg = "Client error"
		}

		event.
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Str("ip", c.ClientIP()).
			Int("status", statusCode).
			Dur("duration", latency).
			Str("user_agent", c.Request.UserAgent()).
			Msg(msg)
	}
}
