package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/intake-api/pkg/metrics"
)

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	h := New(reg, metrics.New("intake", reg))

	r := gin.New()
	r.Use(h.Middleware())
	r.GET("/appointments/:appointmentId", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", h.Handler())

	for _, id := range []string{"a-1", "a-2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/appointments/"+id, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `intake_http_requests_total{method="GET",path="/appointments/:appointmentId",status="204"} 2`)
	assert.NotContains(t, body, "a-1")
}
