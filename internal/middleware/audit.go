package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/pkg/logger"
)

// AuditMiddleware records every admin action
type AuditMiddleware struct {
	log *logger.Logger
}

func NewAuditMiddleware(log *logger.Logger) *AuditMiddleware {
	return &AuditMiddleware{log: log.With("component", "audit")}
}

func (m *AuditMiddleware) AuditLog(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action := "read"
		switch c.Request.Method {
		case "POST":
			action = "create"
		case "PUT", "PATCH":
			action = "update"
		case "DELETE":
			action = "delete"
		}

		m.log.Zerolog().Info().
			Str("request_id", GetRequestID(c)).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", c.Param("appointmentId")).
			Str("path", c.FullPath()).
			Str("ip", c.ClientIP()).
			Bool("admin", c.GetBool(ContextAdmin)).
			Int("status", c.Writer.Status()).
			Msg("admin action")
	}
}
