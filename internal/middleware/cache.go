package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheConfig represents cache control configuration
type CacheConfig struct {
	MaxAge               int
	Private              bool
	MustRevalidate       bool
	StaleWhileRevalidate int
	Vary                 []string
}

// DefaultCacheConfig suits data that changes only on deploy, like form
// descriptors.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxAge:               300,
		StaleWhileRevalidate: 60,
		Vary:                 []string{"Accept-Encoding"},
	}
}

// Cache adds cache control headers to GET responses
func Cache(config CacheConfig) gin.HandlerFunc {
	directives := make([]string, 0, 4)
	if config.Private {
		directives = append(directives, "private")
	} else {
		directives = append(directives, "public")
	}
	if config.MaxAge > 0 {
		directives = append(directives, "max-age="+strconv.Itoa(config.MaxAge))
	}
	if config.MustRevalidate {
		directives = append(directives, "must-revalidate")
	}
	if config.StaleWhileRevalidate > 0 {
		directives = append(directives, "stale-while-revalidate="+strconv.Itoa(config.StaleWhileRevalidate))
	}
	cacheControl := strings.Join(directives, ", ")
	vary := strings.Join(config.Vary, ", ")

	return func(c *gin.Context) {
		if c.Request.Method != "GET" {
			c.Header("Cache-Control", "no-store")
			c.Next()
			return
		}

		c.Header("Cache-Control", cacheControl)
		if vary != "" {
			c.Header("Vary", vary)
		}
		c.Next()
	}
}
