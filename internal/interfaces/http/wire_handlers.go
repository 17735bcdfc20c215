package http

import (
	"github.com/hatch-crm/hatch/internal/interfaces/http/handlers"
	metricsHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/metrics"
	routingHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/routing"
	ruleHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/rule"
	slaHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/sla"
)

// allHandlers holds all HTTP handler instances used by the application.
type allHandlers struct {
	healthHandler *handlers.HealthHandler

	// Rule store
	ruleHandler *ruleHandlers.Handler

	// Routing
	recordHandler     *routingHandlers.RecordHandler
	capacityHandler   *routingHandlers.CapacityHandler
	routeEventHandler *routingHandlers.RouteEventHandler

	// SLA & metrics
	slaHandler     *slaHandlers.Handler
	metricsHandler *metricsHandlers.Handler
}
