package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultPingTimeout = 3 * time.Second

// Pinger is anything whose reachability gates readiness
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	backend Pinger
	timeout time.Duration
}

func NewHandler(backend Pinger, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	return &Handler{
		backend: backend,
		timeout: timeout,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.backend.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "Backend connection failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
