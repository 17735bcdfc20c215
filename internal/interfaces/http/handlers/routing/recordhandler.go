// Package routing serves record admission, capacity administration and the
// route event log over HTTP.
package routing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hatch-crm/hatch/internal/application/routing/usecases"
	"github.com/hatch-crm/hatch/internal/shared/logger"
	"github.com/hatch-crm/hatch/internal/shared/utils"
)

type RecordHandler struct {
	admitRecordUC        admitRecordUseCase
	validateTransitionUC validateTransitionUseCase
	resolveRecordUC      resolveRecordUseCase
	logger               logger.Interface
}

func NewRecordHandler(
	admitRecordUC admitRecordUseCase,
	validateTransitionUC validateTransitionUseCase,
	resolveRecordUC resolveRecordUseCase,
	log logger.Interface,
) *RecordHandler {
	return &RecordHandler{
		admitRecordUC:        admitRecordUC,
		validateTransitionUC: validateTransitionUC,
		resolveRecordUC:      resolveRecordUC,
		logger:               log,
	}
}

func recordParams(c *gin.Context) (object, recordID string, err error) {
	if object, err = utils.RequireParam(c, "object"); err != nil {
		return "", "", err
	}
	if recordID, err = utils.RequireParam(c, "recordId"); err != nil {
		return "", "", err
	}
	return object, recordID, nil
}

// AdmitRecord handles POST /api/records/:object/:recordId/admit.
// A blocked record answers 422 with the violations; a record nobody can take
// answers 409 with the unassigned decision as payload.
func (h *RecordHandler) AdmitRecord(c *gin.Context) {
	object, recordID, err := recordParams(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req AdmitRecordRequest
	if err := utils.BindJSON(c, &req); err != nil {
		h.logger.Warnw("invalid request body for admit record", "record_id", recordID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.admitRecordUC.Execute(c.Request.Context(), req.ToCommand(utils.OrgID(c), object, recordID))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ValidateTransition handles POST /api/records/:object/:recordId/validate
func (h *RecordHandler) ValidateTransition(c *gin.Context) {
	object, recordID, err := recordParams(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req ValidateTransitionRequest
	if err := utils.BindJSON(c, &req); err != nil {
		h.logger.Warnw("invalid request body for validate transition", "record_id", recordID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.validateTransitionUC.Execute(c.Request.Context(), usecases.ValidateTransitionCommand{
		OrgID:      utils.OrgID(c),
		Object:     object,
		RecordID:   recordID,
		Transition: req.Transition,
		Record:     req.Record,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ResolveRecord handles POST /api/records/:object/:recordId/resolve. Timers
// are keyed by record, so the object segment only scopes the URL.
func (h *RecordHandler) ResolveRecord(c *gin.Context) {
	recordID, err := utils.RequireParam(c, "recordId")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req ResolveRecordRequest
	if c.Request.ContentLength != 0 {
		if err := utils.BindJSON(c, &req); err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
	}

	result, err := h.resolveRecordUC.Execute(c.Request.Context(), usecases.ResolveRecordCommand{
		OrgID:    utils.OrgID(c),
		RecordID: recordID,
		Outcome:  req.Outcome,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Record closed", result)
}
