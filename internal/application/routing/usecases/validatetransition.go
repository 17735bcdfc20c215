package usecases

import (
	"context"

	"github.com/hatch-crm/hatch/internal/application/routing/dto"
	"github.com/hatch-crm/hatch/internal/domain/condition"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// ValidateTransitionCommand asks whether a record may move through a transition.
type ValidateTransitionCommand struct {
	OrgID      string
	Object     string
	RecordID   string
	Transition string
	Record     map[string]any
}

// ValidateTransitionUseCase runs the validation gate and records its outcome.
type ValidateTransitionUseCase struct {
	gate   TransitionValidator
	events routeevent.Repository
	clock  biztime.Clock
	logger logger.Interface
}

func NewValidateTransitionUseCase(
	gate TransitionValidator,
	events routeevent.Repository,
	clock biztime.Clock,
	logger logger.Interface,
) *ValidateTransitionUseCase {
	return &ValidateTransitionUseCase{
		gate:   gate,
		events: events,
		clock:  clock,
		logger: logger,
	}
}

// Execute returns the gate outcome. Violations are not an error here; the
// caller decides how to surface a blocked transition.
func (uc *ValidateTransitionUseCase) Execute(ctx context.Context, cmd ValidateTransitionCommand) (*dto.ValidationDTO, error) {
	uc.logger.Infow("executing validate transition use case",
		"object", cmd.Object, "record_id", cmd.RecordID, "transition", cmd.Transition)

	if err := uc.validateCommand(cmd); err != nil {
		return nil, err
	}

	snap := condition.Flatten(cmd.Record)
	violations, err := uc.gate.Validate(ctx, cmd.OrgID, cmd.Object, cmd.Transition, snap)
	if err != nil {
		uc.logger.Errorw("failed to validate transition", "record_id", cmd.RecordID, "error", err)
		return nil, errors.NewInternalError("failed to evaluate validation rules")
	}

	events := validationEvents(cmd.OrgID, cmd.Object, cmd.RecordID, cmd.Transition, violations, uc.clock.Now())
	if err := uc.events.Append(ctx, events...); err != nil {
		uc.logger.Errorw("failed to record validation events", "record_id", cmd.RecordID, "error", err)
		return nil, errors.NewInternalError("failed to record validation outcome")
	}

	if len(violations) > 0 {
		uc.logger.Infow("transition blocked", "record_id", cmd.RecordID, "violations", len(violations))
	}
	return &dto.ValidationDTO{Allowed: len(violations) == 0, Violations: violations}, nil
}

func (uc *ValidateTransitionUseCase) validateCommand(cmd ValidateTransitionCommand) error {
	if cmd.Object == "" {
		return errors.NewValidationError("object is required")
	}
	if cmd.RecordID == "" {
		return errors.NewValidationError("record ID is required")
	}
	return nil
}
