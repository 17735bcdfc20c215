package usecases

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hatch-crm/hatch/internal/application/rule/dto"
	"github.com/hatch-crm/hatch/internal/domain/rule"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/id"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// UpdateRuleCommand is a partial update. ExpectedVersion, when set, must
// match the stored version.
type UpdateRuleCommand struct {
	OrgID           string
	RuleID          string
	Name            *string
	DSL             json.RawMessage
	Active          *bool
	ExpectedVersion *int
}

type UpdateRuleUseCase struct {
	repo   rule.Repository
	tx     TxRunner
	clock  biztime.Clock
	logger logger.Interface
}

func NewUpdateRuleUseCase(repo rule.Repository, tx TxRunner, clock biztime.Clock, logger logger.Interface) *UpdateRuleUseCase {
	return &UpdateRuleUseCase{repo: repo, tx: tx, clock: clock, logger: logger}
}

func (uc *UpdateRuleUseCase) Execute(ctx context.Context, cmd UpdateRuleCommand) (*dto.RuleDTO, error) {
	uc.logger.Infow("executing update rule use case", "rule_id", cmd.RuleID)

	if cmd.RuleID == "" {
		return nil, apperrors.NewValidationError("rule ID is required")
	}

	r, err := loadRule(ctx, uc.repo, cmd.OrgID, cmd.RuleID)
	if err != nil {
		return nil, err
	}
	if r.IsDeleted() {
		return nil, apperrors.NewRuleNotFoundError(cmd.RuleID)
	}
	if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != r.Version() {
		return nil, apperrors.NewConflictError("rule version mismatch, reload and retry", cmd.RuleID)
	}

	prev := r.Version()
	oldName := r.Name()
	patch := rule.Patch{Name: cmd.Name, Active: cmd.Active}
	if len(cmd.DSL) > 0 {
		patch.DSL = cmd.DSL
	}
	if err := r.Apply(patch, uc.clock.Now()); err != nil {
		uc.logger.Warnw("rule update rejected", "rule_id", cmd.RuleID, "error", err)
		return nil, mapRuleError(err)
	}

	if r.Name() != oldName {
		exists, err := uc.repo.ExistsByName(ctx, r.OrgID(), r.Object(), r.Name(), r.ID())
		if err != nil {
			uc.logger.Errorw("failed to check rule name", "rule_id", r.ID(), "error", err)
			return nil, apperrors.NewInternalError("failed to update rule")
		}
		if exists {
			return nil, apperrors.NewConflictError("a rule with this name already exists for the object", r.Name())
		}
	}

	err = uc.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.repo.Update(txCtx, r, prev); err != nil {
			return err
		}
		return uc.repo.AppendRevision(txCtx, rule.NewRevision(id.NewRevisionID(), r))
	})
	switch {
	case errors.Is(err, rule.ErrVersionConflict):
		return nil, apperrors.NewConflictError("rule was modified concurrently, reload and retry", cmd.RuleID)
	case errors.Is(err, rule.ErrRuleNotFound):
		return nil, apperrors.NewRuleNotFoundError(cmd.RuleID)
	case err != nil:
		uc.logger.Errorw("failed to persist rule update", "rule_id", cmd.RuleID, "error", err)
		return nil, apperrors.NewInternalError("failed to update rule")
	}

	uc.logger.Infow("rule updated", "rule_id", r.ID(), "version", r.Version())
	return dto.ToRuleDTO(r), nil
}
