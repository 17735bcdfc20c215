package rule

import (
	"encoding/json"

	"github.com/hatch-crm/hatch/internal/application/rule/usecases"
)

// CreateRuleRequest carries the DSL document verbatim; it is parsed by the
// use case so syntax errors come back as invalid_dsl.
type CreateRuleRequest struct {
	Object string          `json:"object" binding:"required,max=64"`
	Name   string          `json:"name" binding:"required,max=200"`
	Family string          `json:"family" binding:"omitempty,oneof=validation assignment"`
	DSL    json.RawMessage `json:"dsl" binding:"required"`
	Active *bool           `json:"active"`
}

func (r CreateRuleRequest) ToCommand(orgID string) usecases.CreateRuleCommand {
	return usecases.CreateRuleCommand{
		OrgID:  orgID,
		Object: r.Object,
		Name:   r.Name,
		Family: r.Family,
		DSL:    r.DSL,
		Active: r.Active,
	}
}

// UpdateRuleRequest is a partial update. Version, when set, must match the
// stored version.
type UpdateRuleRequest struct {
	Name    *string         `json:"name" binding:"omitempty,max=200"`
	DSL     json.RawMessage `json:"dsl"`
	Active  *bool           `json:"active"`
	Version *int            `json:"version" binding:"omitempty,min=1"`
}

func (r UpdateRuleRequest) ToCommand(orgID, ruleID string) usecases.UpdateRuleCommand {
	return usecases.UpdateRuleCommand{
		OrgID:           orgID,
		RuleID:          ruleID,
		Name:            r.Name,
		DSL:             r.DSL,
		Active:          r.Active,
		ExpectedVersion: r.Version,
	}
}
