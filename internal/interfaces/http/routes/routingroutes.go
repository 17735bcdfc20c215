package routes

import (
	"github.com/gin-gonic/gin"

	routingHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/routing"
	"github.com/hatch-crm/hatch/internal/interfaces/http/middleware"
)

// RoutingRouteConfig holds dependencies for admission, capacity and route event routes.
type RoutingRouteConfig struct {
	RecordHandler     *routingHandlers.RecordHandler
	CapacityHandler   *routingHandlers.CapacityHandler
	RouteEventHandler *routingHandlers.RouteEventHandler
	// RateLimiter throttles admissions per org; nil disables it.
	RateLimiter *middleware.RateLimiter
}

// SetupRoutingRoutes configures record admission, capacity administration
// and the route event log.
func SetupRoutingRoutes(api *gin.RouterGroup, cfg *RoutingRouteConfig) {
	records := api.Group("/records/:object/:recordId")
	{
		if cfg.RateLimiter != nil {
			records.POST("/admit", cfg.RateLimiter.Limit(), cfg.RecordHandler.AdmitRecord)
		} else {
			records.POST("/admit", cfg.RecordHandler.AdmitRecord)
		}
		records.POST("/validate", cfg.RecordHandler.ValidateTransition)
		records.POST("/resolve", cfg.RecordHandler.ResolveRecord)
	}

	capacity := api.Group("/capacity")
	{
		capacity.GET("", cfg.CapacityHandler.GetCapacityView)
		capacity.PUT("/owners/:ownerId", cfg.CapacityHandler.SetOwnerCapacity)
		capacity.POST("/rebuild", cfg.CapacityHandler.RebuildCapacity)
	}

	api.PUT("/pools/:poolId", cfg.CapacityHandler.SetPoolMembers)

	api.GET("/route-events", cfg.RouteEventHandler.ListRouteEvents)
}
