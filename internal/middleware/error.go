package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/pkg/httputil"
	"github.com/jwalitptl/intake-api/pkg/logger"
)

// ErrorHandler logs errors attached with c.Error and renders the last one
// when the handler did not write a response itself. Client errors are
// logged at debug level only.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		zl := log.Zerolog()
		for _, e := range c.Errors {
			event := zl.Debug()
			if httputil.StatusOf(e.Err) >= http.StatusInternalServerError {
				event = zl.Error()
			}
			event.
				Err(e.Err).
				Str("request_id", GetRequestID(c)).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request error")
		}

		if !c.Writer.Written() {
			httputil.RespondWithError(c, c.Errors.Last().Err)
		}
	}
}
