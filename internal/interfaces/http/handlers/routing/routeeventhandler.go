package routing

import (
	"github.com/gin-gonic/gin"

	"github.com/hatch-crm/hatch/internal/application/routing/usecases"
	"github.com/hatch-crm/hatch/internal/shared/logger"
	"github.com/hatch-crm/hatch/internal/shared/utils"
)

type RouteEventHandler struct {
	listRouteEventsUC listRouteEventsUseCase
	logger            logger.Interface
}

func NewRouteEventHandler(listRouteEventsUC listRouteEventsUseCase, log logger.Interface) *RouteEventHandler {
	return &RouteEventHandler{listRouteEventsUC: listRouteEventsUC, logger: log}
}

// ListRouteEvents handles GET /api/route-events. decision=unassigned lists
// the unassigned backlog.
func (h *RouteEventHandler) ListRouteEvents(c *gin.Context) {
	params := listRouteEventsParams{
		Kind:     c.Query("kind"),
		Decision: c.Query("decision"),
	}
	if err := utils.ValidateStruct(params); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.listRouteEventsUC.Execute(c.Request.Context(), usecases.ListRouteEventsQuery{
		OrgID:    utils.OrgID(c),
		Object:   c.Query("object"),
		RecordID: c.Query("recordId"),
		Decision: params.Decision,
		Kind:     params.Kind,
		RuleID:   c.Query("ruleId"),
		Cursor:   c.Query("cursor"),
		Limit:    utils.ParseLimit(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CursorPageResponse(c, result.Items, result.NextCursor)
}
