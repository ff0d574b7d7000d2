package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/intake-api/pkg/httputil"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

type RateLimiterConfig struct {
	// RPS is the sustained requests per second allowed per client
	RPS   float64
	Burst int
	// TTL is how long an idle client's limiter is kept
	TTL time.Duration
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RPS:   10,
		Burst: 20,
		TTL:   10 * time.Minute,
	}
}

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	config   RateLimiterConfig
	limiters *cache.Cache
	metrics  *metrics.Metrics
}

func NewRateLimiter(config RateLimiterConfig, m *metrics.Metrics) *RateLimiter {
	if config.TTL <= 0 {
		config.TTL = DefaultRateLimiterConfig().TTL
	}
	return &RateLimiter{
		config:   config,
		limiters: cache.New(config.TTL, 2*config.TTL),
		metrics:  m,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, found := rl.limiters.Get(key); found {
		rl.limiters.SetDefault(key, l)
		return l.(*rate.Limiter)
	}

	l := rate.NewLimiter(rate.Limit(rl.config.RPS), rl.config.Burst)
	if err := rl.limiters.Add(key, l, cache.DefaultExpiration); err != nil {
		// another request created it first
		if existing, found := rl.limiters.Get(key); found {
			return existing.(*rate.Limiter)
		}
	}
	return l
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.config.RPS <= 0 {
			c.Next()
			return
		}

		if !rl.limiter(c.ClientIP()).Allow() {
			if rl.metrics != nil {
				rl.metrics.RateLimited.Inc()
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.Response{
				Status:  "error",
				Message: "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
