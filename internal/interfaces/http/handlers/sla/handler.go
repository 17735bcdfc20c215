// Package sla serves the SLA sweep trigger and dashboard.
package sla

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hatch-crm/hatch/internal/application/sla/dto"
	"github.com/hatch-crm/hatch/internal/application/sla/usecases"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/logger"
	"github.com/hatch-crm/hatch/internal/shared/utils"
)

type processSweepUseCase interface {
	Execute(ctx context.Context, cmd usecases.ProcessSweepCommand) (*dto.SweepResultDTO, error)
}

type getDashboardUseCase interface {
	Execute(ctx context.Context, query usecases.GetDashboardQuery) (*dto.DashboardDTO, error)
}

type Handler struct {
	processSweepUC processSweepUseCase
	getDashboardUC getDashboardUseCase
	logger         logger.Interface
}

func NewHandler(processSweepUC processSweepUseCase, getDashboardUC getDashboardUseCase, log logger.Interface) *Handler {
	return &Handler{
		processSweepUC: processSweepUC,
		getDashboardUC: getDashboardUC,
		logger:         log,
	}
}

// ProcessSweep handles POST /api/sla/sweep. An optional now query parameter
// evaluates the pass at that instant instead of the current time.
func (h *Handler) ProcessSweep(c *gin.Context) {
	var cmd usecases.ProcessSweepCommand
	if v := c.Query("now"); v != "" {
		now, err := biztime.ParseBound(v, false)
		if err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("invalid now parameter", err.Error()))
			return
		}
		cmd.Now = &now
	}

	result, err := h.processSweepUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("sla sweep triggered over http",
		"processed", result.Processed,
		"escalated", result.Escalated,
		"failed", result.Failed)
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// GetDashboard handles GET /api/sla/dashboard
func (h *Handler) GetDashboard(c *gin.Context) {
	result, err := h.getDashboardUC.Execute(c.Request.Context(), usecases.GetDashboardQuery{
		OrgID: utils.OrgID(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
