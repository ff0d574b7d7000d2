package router

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/internal/handler/prometheus"
	"github.com/jwalitptl/intake-api/internal/middleware"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine  *gin.Engine
	config  RouterConfig
	log     *logger.Logger
	metrics *prometheus.Handler

	healthH      Handler
	formH        Handler
	userH        Handler
	patientH     Handler
	appointmentH Handler
	adminH       Handler
	fileH        Handler
}

type RouterConfig struct {
	Mode        string
	RateLimiter middleware.RateLimiterConfig
	CORSConfig  middleware.CORSConfig
	SizeLimit   middleware.SizeLimitConfig
	Timeout     middleware.TimeoutConfig
	Metrics     *metrics.Metrics
}

// Handlers groups the route sets mounted under /api/v1
type Handlers struct {
	Health      Handler
	Form        Handler
	User        Handler
	Patient     Handler
	Appointment Handler
	Admin       Handler
	// File is nil when the backend serves files itself.
	File Handler
}

func NewRouter(handlers Handlers, promH *prometheus.Handler, log *logger.Logger, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	if config.Timeout.Duration <= 0 {
		config.Timeout = middleware.DefaultTimeoutConfig()
	}
	if config.SizeLimit.MaxBodySize <= 0 {
		config.SizeLimit = middleware.DefaultSizeLimitConfig()
	}
	if len(config.CORSConfig.AllowOrigins) == 0 {
		config.CORSConfig = middleware.DefaultCORSConfig()
	}

	engine := gin.New()

	r := &Router{
		engine:       engine,
		config:       config,
		log:          log,
		metrics:      promH,
		healthH:      handlers.Health,
		formH:        handlers.Form,
		userH:        handlers.User,
		patientH:     handlers.Patient,
		appointmentH: handlers.Appointment,
		adminH:       handlers.Admin,
		fileH:        handlers.File,
	}

	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Compress(middleware.DefaultCompressConfig()),
		middleware.ErrorHandler(log),
		promH.Middleware(),
		middleware.Timeout(config.Timeout),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.SizeLimit(config.SizeLimit),
	)

	rateLimiter := middleware.NewRateLimiter(config.RateLimiter, config.Metrics)
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", r.metrics.Handler())

	api := r.engine.Group("/api/v1")
	r.healthH.RegisterRoutes(api)
	r.formH.RegisterRoutes(api)
	r.userH.RegisterRoutes(api)

	// Everything below carries patient data and must never be cached.
	phi := api.Group("")
	phi.Use(middleware.ProtectedHealthInfo())
	r.patientH.RegisterRoutes(phi)
	r.appointmentH.RegisterRoutes(phi)
	r.adminH.RegisterRoutes(phi)
	if r.fileH != nil {
		r.fileH.RegisterRoutes(phi)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
