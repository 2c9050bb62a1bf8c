package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/sales-api/internal/config"
)

var (
	defaultCORSOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	defaultCORSMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Accept", "Content-Type", "Origin", "X-Request-ID"}
)

// CORSMiddleware creates a CORS middleware with the provided configuration
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	return cors.New(corsConfig(cfg))
}

func corsConfig(cfg *config.CORSConfig) cors.Config {
	headers := orDefault(cfg.AllowedHeaders, defaultCORSHeaders)
	if !contains(headers, IdempotencyKeyHeader) {
		headers = append(append([]string(nil), headers...), IdempotencyKeyHeader)
	}

	return cors.Config{
		AllowOrigins: orDefault(cfg.AllowedOrigins, defaultCORSOrigins),
		AllowMethods: orDefault(cfg.AllowedMethods, defaultCORSMethods),
		AllowHeaders: headers,
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
			"X-Idempotency-Replayed",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"Retry-After",
		},
		MaxAge: 12 * time.Hour,
	}
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
