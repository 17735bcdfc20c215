package usecases

import (
	"context"
	"time"

	"github.com/hatch-crm/hatch/internal/application/sla/dto"
	"github.com/hatch-crm/hatch/internal/application/sla/services"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// Sweeper runs one sweep pass at a given instant.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (*services.SweepResult, error)
}

// ProcessSweepCommand triggers a pass. Now defaults to the current time.
type ProcessSweepCommand struct {
	Now *time.Time
}

type ProcessSweepUseCase struct {
	sweeper Sweeper
	clock   biztime.Clock
	logger  logger.Interface
}

func NewProcessSweepUseCase(sweeper Sweeper, clock biztime.Clock, logger logger.Interface) *ProcessSweepUseCase {
	return &ProcessSweepUseCase{sweeper: sweeper, clock: clock, logger: logger}
}

func (uc *ProcessSweepUseCase) Execute(ctx context.Context, cmd ProcessSweepCommand) (*dto.SweepResultDTO, error) {
	now := uc.clock.Now()
	if cmd.Now != nil {
		now = cmd.Now.UTC()
	}
	uc.logger.Infow("executing process sweep use case", "now", now)

	res, err := uc.sweeper.Sweep(ctx, now)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		uc.logger.Errorw("sla sweep failed", "error", err)
		return nil, errors.NewInternalError("failed to process sla timers")
	}

	return &dto.SweepResultDTO{
		Processed: res.Processed,
		Advanced:  res.Advanced,
		Escalated: res.Escalated,
		Failed:    res.Failed,
	}, nil
}
