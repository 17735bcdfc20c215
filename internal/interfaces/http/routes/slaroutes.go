package routes

import (
	"github.com/gin-gonic/gin"

	metricsHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/metrics"
	slaHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/sla"
)

// SLARouteConfig holds dependencies for the SLA and metrics read models.
type SLARouteConfig struct {
	SLAHandler     *slaHandlers.Handler
	MetricsHandler *metricsHandlers.Handler
}

// SetupSLARoutes configures the sweep trigger, the dashboard and metrics.
func SetupSLARoutes(api *gin.RouterGroup, cfg *SLARouteConfig) {
	sla := api.Group("/sla")
	{
		// Called by an external scheduler when no worker process runs.
		sla.POST("/sweep", cfg.SLAHandler.ProcessSweep)
		sla.GET("/dashboard", cfg.SLAHandler.GetDashboard)
	}

	api.GET("/metrics", cfg.MetricsHandler.GetMetrics)
}
