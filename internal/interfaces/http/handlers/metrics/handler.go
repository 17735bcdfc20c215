// Package metrics serves the routing metrics rollup.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hatch-crm/hatch/internal/application/metrics/dto"
	"github.com/hatch-crm/hatch/internal/application/metrics/usecases"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/logger"
	"github.com/hatch-crm/hatch/internal/shared/utils"
)

type getMetricsUseCase interface {
	Execute(ctx context.Context, query usecases.GetMetricsQuery) (*dto.MetricsDTO, error)
}

type Handler struct {
	getMetricsUC getMetricsUseCase
	logger       logger.Interface
}

func NewHandler(getMetricsUC getMetricsUseCase, log logger.Interface) *Handler {
	return &Handler{getMetricsUC: getMetricsUC, logger: log}
}

// GetMetrics handles GET /api/metrics?from=&to=. Bounds accept RFC 3339 or
// YYYY-MM-DD; a date in to covers that whole day.
func (h *Handler) GetMetrics(c *gin.Context) {
	from, err := parseBound(c, "from", false)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	to, err := parseBound(c, "to", true)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		utils.ErrorResponseWithError(c, errors.NewValidationError("from must be before to"))
		return
	}

	result, err := h.getMetricsUC.Execute(c.Request.Context(), usecases.GetMetricsQuery{
		OrgID: utils.OrgID(c),
		From:  from,
		To:    to,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func parseBound(c *gin.Context, name string, endOfRange bool) (time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := biztime.ParseBound(v, endOfRange)
	if err != nil {
		return time.Time{}, errors.NewValidationError("invalid "+name+" parameter", err.Error())
	}
	return t, nil
}
