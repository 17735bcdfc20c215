package routing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hatch-crm/hatch/internal/application/routing/usecases"
	"github.com/hatch-crm/hatch/internal/shared/logger"
	"github.com/hatch-crm/hatch/internal/shared/utils"
)

type CapacityHandler struct {
	getCapacityViewUC  getCapacityViewUseCase
	setOwnerCapacityUC setOwnerCapacityUseCase
	setPoolMembersUC   setPoolMembersUseCase
	rebuildCapacityUC  rebuildCapacityUseCase
	logger             logger.Interface
}

func NewCapacityHandler(
	getCapacityViewUC getCapacityViewUseCase,
	setOwnerCapacityUC setOwnerCapacityUseCase,
	setPoolMembersUC setPoolMembersUseCase,
	rebuildCapacityUC rebuildCapacityUseCase,
	log logger.Interface,
) *CapacityHandler {
	return &CapacityHandler{
		getCapacityViewUC:  getCapacityViewUC,
		setOwnerCapacityUC: setOwnerCapacityUC,
		setPoolMembersUC:   setPoolMembersUC,
		rebuildCapacityUC:  rebuildCapacityUC,
		logger:             log,
	}
}

// GetCapacityView handles GET /api/capacity?poolId=
func (h *CapacityHandler) GetCapacityView(c *gin.Context) {
	result, err := h.getCapacityViewUC.Execute(c.Request.Context(), usecases.GetCapacityViewQuery{
		PoolID: c.Query("poolId"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// SetOwnerCapacity handles PUT /api/capacity/owners/:ownerId
func (h *CapacityHandler) SetOwnerCapacity(c *gin.Context) {
	ownerID, err := utils.RequireParam(c, "ownerId")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req SetOwnerCapacityRequest
	if err := utils.BindJSON(c, &req); err != nil {
		h.logger.Warnw("invalid request body for set owner capacity", "owner_id", ownerID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.setOwnerCapacityUC.Execute(c.Request.Context(), usecases.SetOwnerCapacityCommand{
		OwnerID:     ownerID,
		MaxCapacity: *req.MaxCapacity,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Capacity updated", result)
}

// SetPoolMembers handles PUT /api/pools/:poolId
func (h *CapacityHandler) SetPoolMembers(c *gin.Context) {
	poolID, err := utils.RequireParam(c, "poolId")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req SetPoolMembersRequest
	if err := utils.BindJSON(c, &req); err != nil {
		h.logger.Warnw("invalid request body for set pool members", "pool_id", poolID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.setPoolMembersUC.Execute(c.Request.Context(), usecases.SetPoolMembersCommand{
		PoolID:   poolID,
		OwnerIDs: req.Members,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pool updated", result)
}

// RebuildCapacity handles POST /api/capacity/rebuild
func (h *CapacityHandler) RebuildCapacity(c *gin.Context) {
	result, err := h.rebuildCapacityUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Capacity rebuilt", result)
}
