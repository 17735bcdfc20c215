package usecases

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hatch-crm/hatch/internal/application/rule/dto"
	"github.com/hatch-crm/hatch/internal/domain/rule"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/id"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// CreateRuleCommand represents the input for creating a rule.
type CreateRuleCommand struct {
	OrgID  string
	Object string
	Name   string
	// Family is inferred from the document when empty.
	Family string
	DSL    json.RawMessage
	// Active defaults to true.
	Active *bool
}

// CreateRuleUseCase compiles and stores a new rule with its first revision.
type CreateRuleUseCase struct {
	repo   rule.Repository
	tx     TxRunner
	clock  biztime.Clock
	logger logger.Interface
}

func NewCreateRuleUseCase(repo rule.Repository, tx TxRunner, clock biztime.Clock, logger logger.Interface) *CreateRuleUseCase {
	return &CreateRuleUseCase{repo: repo, tx: tx, clock: clock, logger: logger}
}

func (uc *CreateRuleUseCase) Execute(ctx context.Context, cmd CreateRuleCommand) (*dto.RuleDTO, error) {
	uc.logger.Infow("executing create rule use case", "object", cmd.Object, "name", cmd.Name)

	if err := uc.validateCommand(cmd); err != nil {
		return nil, err
	}

	active := true
	if cmd.Active != nil {
		active = *cmd.Active
	}
	r, err := rule.NewRule(id.NewRuleID(), cmd.OrgID, cmd.Object, cmd.Name,
		rule.Family(strings.TrimSpace(cmd.Family)), cmd.DSL, active, uc.clock.Now())
	if err != nil {
		uc.logger.Warnw("rule rejected", "name", cmd.Name, "error", err)
		return nil, mapRuleError(err)
	}

	exists, err := uc.repo.ExistsByName(ctx, r.OrgID(), r.Object(), r.Name(), "")
	if err != nil {
		uc.logger.Errorw("failed to check rule name", "name", r.Name(), "error", err)
		return nil, errors.NewInternalError("failed to create rule")
	}
	if exists {
		return nil, errors.NewConflictError("a rule with this name already exists for the object", r.Name())
	}

	err = uc.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.repo.Create(txCtx, r); err != nil {
			return err
		}
		return uc.repo.AppendRevision(txCtx, rule.NewRevision(id.NewRevisionID(), r))
	})
	if err != nil {
		if errors.IsDuplicateError(err) {
			return nil, errors.NewConflictError("a rule with this name already exists for the object", r.Name())
		}
		uc.logger.Errorw("failed to persist rule", "name", r.Name(), "error", err)
		return nil, errors.NewInternalError("failed to create rule")
	}

	uc.logger.Infow("rule created", "rule_id", r.ID(), "family", r.Family(), "object", r.Object())
	return dto.ToRuleDTO(r), nil
}

func (uc *CreateRuleUseCase) validateCommand(cmd CreateRuleCommand) error {
	if strings.TrimSpace(cmd.Object) == "" {
		return errors.NewValidationError("object is required")
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return errors.NewValidationError("name is required")
	}
	if len(cmd.DSL) == 0 {
		return errors.NewInvalidDSLError("dsl document is empty")
	}
	if cmd.Family != "" && !rule.Family(strings.TrimSpace(cmd.Family)).IsValid() {
		return errors.NewValidationError("family must be validation or assignment", cmd.Family)
	}
	return nil
}
