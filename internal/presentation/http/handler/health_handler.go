package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/sales-api/internal/metrics"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	service string
	checks  map[string]HealthCheck
	metrics *metrics.Metrics
}

func NewHealthHandler(service string, m *metrics.Metrics, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{service: service, checks: checks, metrics: m}
}

// Health answers 200 when every check passes and 503 otherwise.
// failed_publishes counts events lost since start.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":           state,
		"service":          h.service,
		"dependencies":     deps,
		"failed_publishes": h.metrics.FailedPublishes(),
	})
}
