// Package handlers holds the service-level HTTP handlers. Domain handlers
// live in subpackages.
package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// Pinger is anything the health check can ping.
type Pinger func(ctx context.Context) error

// HealthHandler reports liveness and the state of backing stores.
type HealthHandler struct {
	checks  map[string]Pinger
	version string
	logger  logger.Interface
}

func NewHealthHandler(version string, log logger.Interface) *HealthHandler {
	return &HealthHandler{
		checks:  make(map[string]Pinger),
		version: version,
		logger:  log,
	}
}

// AddCheck registers a named check. Call before serving.
func (h *HealthHandler) AddCheck(name string, p Pinger) {
	h.checks[name] = p
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(gin.H, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warnw("health check failed", "check", name, "error", err)
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"service": "hatch",
		"checks":  checks,
	})
}

// Version handles GET /version
func (h *HealthHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}
