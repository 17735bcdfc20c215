package http

import (
	"github.com/gin-gonic/gin"

	routingUsecases "github.com/hatch-crm/hatch/internal/application/routing/usecases"
	ruleUsecases "github.com/hatch-crm/hatch/internal/application/rule/usecases"
	slaServices "github.com/hatch-crm/hatch/internal/application/sla/services"
	"github.com/hatch-crm/hatch/internal/interfaces/http/middleware"
	"github.com/hatch-crm/hatch/internal/interfaces/http/routes"
	"github.com/hatch-crm/hatch/internal/shared/utils"
)

// SetupRoutes configures all HTTP routes
func (c *Container) SetupRoutes() {
	utils.RegisterBindingTagNames()

	c.engine.Use(middleware.RequestID())
	c.engine.Use(middleware.Logger(c.log))
	c.engine.Use(middleware.Recovery(c.log))
	c.engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))
	c.engine.Use(middleware.SecurityHeaders())

	c.engine.GET("/health", c.hdlrs.healthHandler.HealthCheck)
	c.engine.GET("/version", c.hdlrs.healthHandler.Version)

	api := c.engine.Group("/api")
	api.Use(middleware.OrgScope())

	routes.SetupRuleRoutes(api, &routes.RuleRouteConfig{
		RuleHandler: c.hdlrs.ruleHandler,
	})

	routes.SetupRoutingRoutes(api, &routes.RoutingRouteConfig{
		RecordHandler:     c.hdlrs.recordHandler,
		CapacityHandler:   c.hdlrs.capacityHandler,
		RouteEventHandler: c.hdlrs.routeEventHandler,
		RateLimiter:       c.rateLimiter,
	})

	routes.SetupSLARoutes(api, &routes.SLARouteConfig{
		SLAHandler:     c.hdlrs.slaHandler,
		MetricsHandler: c.hdlrs.metricsHandler,
	})
}

// GetEngine returns the Gin engine
func (c *Container) GetEngine() *gin.Engine {
	return c.engine
}

// Run starts the HTTP server
func (c *Container) Run(addr string) error {
	return c.engine.Run(addr)
}

// SweepService returns the SLA sweep for the worker scheduler.
func (c *Container) SweepService() *slaServices.SweepService {
	return c.sweeper
}

// RebuildCapacityUseCase returns the capacity rebuild for the worker scheduler.
func (c *Container) RebuildCapacityUseCase() *routingUsecases.RebuildCapacityUseCase {
	return c.ucs.rebuildCapacityUC
}

// ImportRulesUseCase returns the rule seed importer for the CLI.
func (c *Container) ImportRulesUseCase() *ruleUsecases.ImportRulesUseCase {
	return c.ucs.importRulesUC
}

// Shutdown gracefully stops all background services.
func (c *Container) Shutdown() {
	c.routeEventBusCancelMu.Lock()
	if c.routeEventBusCancel != nil {
		c.routeEventBusCancel()
		c.routeEventBusCancel = nil
	}
	c.routeEventBusCancelMu.Unlock()

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warnw("failed to close redis client", "error", err)
		}
	}
}
