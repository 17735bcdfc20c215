package routes

import (
	"github.com/gin-gonic/gin"

	ruleHandlers "github.com/hatch-crm/hatch/internal/interfaces/http/handlers/rule"
)

// RuleRouteConfig holds dependencies for rule store routes.
type RuleRouteConfig struct {
	RuleHandler *ruleHandlers.Handler
}

// SetupRuleRoutes configures the rule store routes under the org-scoped API group.
func SetupRuleRoutes(api *gin.RouterGroup, cfg *RuleRouteConfig) {
	rules := api.Group("/rules")
	{
		// Collection operations
		rules.GET("", cfg.RuleHandler.ListRules)
		rules.POST("", cfg.RuleHandler.CreateRule)

		// Must come BEFORE /:id
		rules.POST("/import", cfg.RuleHandler.ImportRules)

		rules.GET("/:id", cfg.RuleHandler.GetRule)
		rules.PATCH("/:id", cfg.RuleHandler.UpdateRule)
		rules.DELETE("/:id", cfg.RuleHandler.DeleteRule)
		rules.GET("/:id/revisions", cfg.RuleHandler.ListRevisions)
	}
}
