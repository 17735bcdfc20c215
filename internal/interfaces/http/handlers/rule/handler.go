// Package rule serves the rule store over HTTP.
package rule

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hatch-crm/hatch/internal/application/rule/usecases"
	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/id"
	"github.com/hatch-crm/hatch/internal/shared/logger"
	"github.com/hatch-crm/hatch/internal/shared/utils"
)

// maxImportBytes bounds a rule import upload.
const maxImportBytes = 1 << 20

type Handler struct {
	createRuleUC    createRuleUseCase
	updateRuleUC    updateRuleUseCase
	deleteRuleUC    deleteRuleUseCase
	getRuleUC       getRuleUseCase
	listRulesUC     listRulesUseCase
	listRevisionsUC listRuleRevisionsUseCase
	importRulesUC   importRulesUseCase
	logger          logger.Interface
}

func NewHandler(
	createRuleUC createRuleUseCase,
	updateRuleUC updateRuleUseCase,
	deleteRuleUC deleteRuleUseCase,
	getRuleUC getRuleUseCase,
	listRulesUC listRulesUseCase,
	listRevisionsUC listRuleRevisionsUseCase,
	importRulesUC importRulesUseCase,
	log logger.Interface,
) *Handler {
	return &Handler{
		createRuleUC:    createRuleUC,
		updateRuleUC:    updateRuleUC,
		deleteRuleUC:    deleteRuleUC,
		getRuleUC:       getRuleUC,
		listRulesUC:     listRulesUC,
		listRevisionsUC: listRevisionsUC,
		importRulesUC:   importRulesUC,
		logger:          log,
	}
}

func parseRuleID(c *gin.Context) (string, error) {
	return utils.ParseSIDParam(c, "id", id.PrefixRule, "rule")
}

// CreateRule handles POST /api/rules
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := utils.BindJSON(c, &req); err != nil {
		h.logger.Warnw("invalid request body for create rule", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.createRuleUC.Execute(c.Request.Context(), req.ToCommand(utils.OrgID(c)))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Rule created successfully")
}

// UpdateRule handles PATCH /api/rules/:id
func (h *Handler) UpdateRule(c *gin.Context) {
	ruleID, err := parseRuleID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req UpdateRuleRequest
	if err := utils.BindJSON(c, &req); err != nil {
		h.logger.Warnw("invalid request body for update rule", "rule_id", ruleID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.updateRuleUC.Execute(c.Request.Context(), req.ToCommand(utils.OrgID(c), ruleID))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Rule updated successfully", result)
}

// DeleteRule handles DELETE /api/rules/:id. Deleting twice succeeds.
func (h *Handler) DeleteRule(c *gin.Context) {
	ruleID, err := parseRuleID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.deleteRuleUC.Execute(c.Request.Context(), usecases.DeleteRuleCommand{
		OrgID:  utils.OrgID(c),
		RuleID: ruleID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// GetRule handles GET /api/rules/:id
func (h *Handler) GetRule(c *gin.Context) {
	ruleID, err := parseRuleID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getRuleUC.Execute(c.Request.Context(), usecases.GetRuleQuery{
		OrgID:  utils.OrgID(c),
		RuleID: ruleID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListRules handles GET /api/rules
func (h *Handler) ListRules(c *gin.Context) {
	query := usecases.ListRulesQuery{
		OrgID:  utils.OrgID(c),
		Object: c.Query("object"),
		Family: c.Query("family"),
		Cursor: c.Query("cursor"),
		Limit:  utils.ParseLimit(c),
	}
	if v := c.Query("activeOnly"); v != "" {
		activeOnly, err := strconv.ParseBool(v)
		if err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("activeOnly must be a boolean"))
			return
		}
		query.ActiveOnly = activeOnly
	}

	result, err := h.listRulesUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CursorPageResponse(c, result.Items, result.NextCursor)
}

// ListRevisions handles GET /api/rules/:id/revisions
func (h *Handler) ListRevisions(c *gin.Context) {
	ruleID, err := parseRuleID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.listRevisionsUC.Execute(c.Request.Context(), usecases.ListRuleRevisionsQuery{
		OrgID:  utils.OrgID(c),
		RuleID: ruleID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ImportRules handles POST /api/rules/import with a YAML document as the body.
func (h *Handler) ImportRules(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes+1))
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("failed to read request body"))
		return
	}
	if len(data) > maxImportBytes {
		utils.ErrorResponseWithError(c, errors.NewValidationError("import document is too large"))
		return
	}

	skipExisting, _ := strconv.ParseBool(c.Query("skipExisting"))
	result, err := h.importRulesUC.Execute(c.Request.Context(), usecases.ImportRulesCommand{
		OrgID:        utils.OrgID(c),
		Data:         data,
		SkipExisting: skipExisting,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("rules imported",
		"created", len(result.Created),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed))
	utils.SuccessResponse(c, http.StatusOK, "", result)
}
