package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/speakerline/logger"
)

// RequestLogger returns middleware that logs every request with method, path,
// status code, and duration. Health-check paths are silently skipped, as are
// long-lived streaming requests (SSE, WebSocket) whose duration is the
// lifetime of the client connection rather than a request latency.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isQuietEndpoint(c.Request.URL.Path) || isStreamingRequest(c) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        path,
			"status":      status,
			"duration_ms": latency.Milliseconds(),
			"client":      c.ClientIP(),
		}
		if id := c.GetString("request_id"); id != "" {
			fields["request_id"] = id
		}
		if latency > 500*time.Millisecond {
			fields["slow"] = true
		}

		switch {
		case status >= 500:
			log.Error("Request completed", fields)
		case status >= 400:
			log.Warn("Request completed", fields)
		default:
			log.Debug("Request completed", fields)
		}
	}
}

func isQuietEndpoint(path string) bool {
	switch path {
	case "/healthz", "/health", "/metrics":
		return true
	}
	return false
}

func isStreamingRequest(c *gin.Context) bool {
	if c.GetHeader("Upgrade") == "websocket" {
		return true
	}
	return c.GetHeader("Accept") == "text/event-stream"
}
