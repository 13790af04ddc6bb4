package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kidpech/asso_api/internal/app/diagnostics"
	"github.com/kidpech/asso_api/internal/infrastructure/logging"
	"github.com/kidpech/asso_api/internal/infrastructure/monitoring"
)

// RequestLogger logs request info, feeds the debug buffer and records metrics.
func RequestLogger(logger *zap.Logger, buffer *diagnostics.LogBuffer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		id := c.GetString("request_id")

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if username := c.GetString(ctxUsername); username != "" {
			fields = append(fields, zap.String("username", username))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logging.WithRequestID(logger, id).Info("request", fields...)

		if buffer != nil {
			buffer.Append(time.Now().UTC().Format(time.RFC3339) + " " + id + " " + c.Request.Method + " " + path + " -> " + status)
		}
		monitoring.ObserveRequest(path, c.Request.Method, status, latency.Seconds())
	}
}
