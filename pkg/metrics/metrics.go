package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	RateLimited  prometheus.Counter

	// Gateway metrics
	GatewayOperations *prometheus.CounterVec
	GatewayLatency    *prometheus.HistogramVec
	UploadsRejected   *prometheus.CounterVec
	BreakerState      *prometheus.GaugeVec

	// Event metrics
	EventsPublished   *prometheus.CounterVec
	NotificationsSent *prometheus.CounterVec
	RedisOperations   *prometheus.CounterVec
}

// New creates all metrics and registers them with reg
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),

		GatewayOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_operations_total",
			Help:      "Total number of persistence gateway operations",
		}, []string{"backend", "operation", "status"}),
		GatewayLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_operation_duration_seconds",
			Help:      "Duration of persistence gateway operations",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"backend", "operation"}),
		UploadsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Total number of identification documents rejected before upload",
		}, []string{"reason"}),
		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of appointment events published",
		}, []string{"type", "status"}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications sent",
		}, []string{"channel", "status"}),
		RedisOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_operations_total",
			Help:      "Total number of Redis operations",
		}, []string{"operation", "status"}),
	}
}

// ObserveGateway records one gateway call that started at start.
func (m *Metrics) ObserveGateway(backend, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.GatewayOperations.WithLabelValues(backend, operation, Status(err)).Inc()
	m.GatewayLatency.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}

// Status is the label value for an operation's outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
