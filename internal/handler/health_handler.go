package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AminArria/sponsorly/pkg/response"
)

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports the state of the service dependencies
type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Health runs every check
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	failed := make(map[string][]string)
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = "down"
			failed[name] = []string{err.Error()}
			continue
		}
		status[name] = "up"
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable,
			response.ErrorWithDetails(response.ErrCodeServiceUnavailable, "Service unhealthy", failed))
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"status": "healthy", "checks": status}))
}
