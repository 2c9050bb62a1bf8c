package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/sales-api/internal/metrics"
	"github.com/sangkips/sales-api/internal/presentation/http/dto/response"
	"go.uber.org/zap"
)

// LoggerMiddleware assigns a request id, logs every request and records its latency
func LoggerMiddleware(log *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(response.RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(status), latency.Seconds())

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}

		for _, e := range c.Errors {
			log.Error("request error", zap.String("request_id", requestID), zap.Error(e.Err))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
