package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/agentrouter/logging"
)

// TraceHeader carries the trace id in requests and responses.
const TraceHeader = "X-Request-ID"

const traceKey = "trace_id"

// traceMiddleware adopts the caller's trace id or generates one, and echoes
// it in the response header.
func traceMiddleware(newTraceID func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(TraceHeader))
		if id == "" || len(id) > 128 {
			id = newTraceID()
		}
		c.Set(traceKey, id)
		c.Header(TraceHeader, id)
		c.Next()
	}
}

func traceID(c *gin.Context) string { return c.GetString(traceKey) }

// requestLogger logs method, path, status and duration of every request.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"trace_id", traceID(c),
		}
		switch {
		case status >= 500:
			logger.Error("http.request", args...)
		case status >= 400:
			logger.Warn("http.request", args...)
		default:
			logger.Info("http.request", args...)
		}
	}
}
