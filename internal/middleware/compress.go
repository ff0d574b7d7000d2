package middleware

import (
	"compress/gzip"
	"strings"

	"github.com/gin-gonic/gin"
)

type gzipWriter struct {
	gin.ResponseWriter
	writer  *gzip.Writer
	started bool
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	if !g.started {
		g.started = true
		h := g.ResponseWriter.Header()
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")
	}
	return g.writer.Write(data)
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}

// CompressConfig represents compression configuration
type CompressConfig struct {
	Level     int
	Blacklist []string
}

// DefaultCompressConfig returns default compression configuration
func DefaultCompressConfig() CompressConfig {
	return CompressConfig{
		Level: gzip.DefaultCompression,
		Blacklist: []string{
			"/api/v1/health",
		},
	}
}

// Compress gzips response bodies for clients that accept it. Responses
// without a body are left untouched.
func Compress(config CompressConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, path := range config.Blacklist {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gz, err := gzip.NewWriterLevel(c.Writer, config.Level)
		if err != nil {
			c.Next()
			return
		}

		w := &gzipWriter{ResponseWriter: c.Writer, writer: gz}
		c.Writer = w
		defer func() {
			if w.started {
				_ = gz.Close()
			}
			c.Writer = w.ResponseWriter
		}()

		c.Next()
	}
}
