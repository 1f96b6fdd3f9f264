package api

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

const readHeaderTimeout = 10 * time.Second

// requestLogger logs every request through charmbracelet/log.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if path == "/healthz" {
			return
		}

		status := c.Writer.Status()
		keyvals := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			log.Error("Request", keyvals...)
		case status >= 400:
			log.Warn("Request", keyvals...)
		default:
			log.Debug("Request", keyvals...)
		}
	}
}
