package usecases

import (
	"context"
	"errors"

	"github.com/hatch-crm/hatch/internal/application/rule/dto"
	"github.com/hatch-crm/hatch/internal/domain/rule"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/id"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// DeleteRuleCommand soft-deletes a rule.
type DeleteRuleCommand struct {
	OrgID  string
	RuleID string
}

// DeleteRuleUseCase deactivates a rule and stamps it deleted. Route events
// that reference the rule are left untouched.
type DeleteRuleUseCase struct {
	repo   rule.Repository
	tx     TxRunner
	clock  biztime.Clock
	logger logger.Interface
}

func NewDeleteRuleUseCase(repo rule.Repository, tx TxRunner, clock biztime.Clock, logger logger.Interface) *DeleteRuleUseCase {
	return &DeleteRuleUseCase{repo: repo, tx: tx, clock: clock, logger: logger}
}

// Execute is idempotent: deleting an already deleted rule succeeds without a
// new revision.
func (uc *DeleteRuleUseCase) Execute(ctx context.Context, cmd DeleteRuleCommand) (*dto.DeleteResult, error) {
	uc.logger.Infow("executing delete rule use case", "rule_id", cmd.RuleID)

	if cmd.RuleID == "" {
		return nil, apperrors.NewValidationError("rule ID is required")
	}

	r, err := loadRule(ctx, uc.repo, cmd.OrgID, cmd.RuleID)
	if err != nil {
		return nil, err
	}

	prev := r.Version()
	if !r.SoftDelete(uc.clock.Now()) {
		return &dto.DeleteResult{ID: r.ID(), Status: dto.StatusDeleted}, nil
	}

	err = uc.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.repo.Update(txCtx, r, prev); err != nil {
			return err
		}
		return uc.repo.AppendRevision(txCtx, rule.NewRevision(id.NewRevisionID(), r))
	})
	if errors.Is(err, rule.ErrVersionConflict) {
		return nil, apperrors.NewConflictError("rule was modified concurrently, retry the delete", cmd.RuleID)
	}
	if err != nil {
		uc.logger.Errorw("failed to delete rule", "rule_id", cmd.RuleID, "error", err)
		return nil, apperrors.NewInternalError("failed to delete rule")
	}

	uc.logger.Infow("rule deleted", "rule_id", r.ID())
	return &dto.DeleteResult{ID: r.ID(), Status: dto.StatusDeleted}, nil
}
