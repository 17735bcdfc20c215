package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/hatch-crm/hatch/internal/application/routing/dto"
	"github.com/hatch-crm/hatch/internal/application/routing/services"
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/sla"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// ResolveRecordCommand closes a record's live SLA timer.
type ResolveRecordCommand struct {
	OrgID    string
	RecordID string
	// Outcome is RESOLVED (default) or CANCELLED.
	Outcome string
}

// ResolveRecordUseCase closes the live timer and frees the owner's slot in
// one transaction.
type ResolveRecordUseCase struct {
	timers  sla.Repository
	tracker *capacity.Tracker
	tx      services.TxRunner
	clock   biztime.Clock
	logger  logger.Interface
}

func NewResolveRecordUseCase(
	timers sla.Repository,
	tracker *capacity.Tracker,
	tx services.TxRunner,
	clock biztime.Clock,
	logger logger.Interface,
) *ResolveRecordUseCase {
	return &ResolveRecordUseCase{
		timers:  timers,
		tracker: tracker,
		tx:      tx,
		clock:   clock,
		logger:  logger,
	}
}

func (uc *ResolveRecordUseCase) Execute(ctx context.Context, cmd ResolveRecordCommand) (*dto.TimerDTO, error) {
	uc.logger.Infow("executing resolve record use case", "record_id", cmd.RecordID, "outcome", cmd.Outcome)

	outcome, err := uc.validateCommand(cmd)
	if err != nil {
		return nil, err
	}

	var closed *sla.Timer
	now := uc.clock.Now()
	err = uc.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		t, err := uc.timers.GetLiveByRecord(txCtx, cmd.OrgID, cmd.RecordID)
		if err != nil {
			return err
		}
		prev := t.Version()
		if err := t.Close(outcome, now); err != nil {
			return err
		}
		if err := uc.timers.Update(txCtx, t, prev); err != nil {
			return err
		}
		closed = t
		return uc.tracker.Release(txCtx, t.OwnerID(), now)
	})
	switch {
	case errors.Is(err, sla.ErrTimerNotFound):
		return nil, apperrors.NewNotFoundError("no live SLA timer for record", cmd.RecordID)
	case errors.Is(err, sla.ErrTimerConflict), errors.Is(err, sla.ErrTimerClosed):
		return nil, apperrors.NewConflictError("SLA timer changed concurrently", cmd.RecordID)
	case err != nil:
		uc.logger.Errorw("failed to resolve record", "record_id", cmd.RecordID, "error", err)
		return nil, apperrors.NewInternalError("failed to close SLA timer")
	}

	uc.logger.Infow("record resolved",
		"record_id", cmd.RecordID, "timer_id", closed.ID(), "owner_id", closed.OwnerID(), "status", closed.Status())
	return dto.ToTimerDTO(closed), nil
}

func (uc *ResolveRecordUseCase) validateCommand(cmd ResolveRecordCommand) (sla.Status, error) {
	if cmd.RecordID == "" {
		return "", apperrors.NewValidationError("record ID is required")
	}
	if cmd.Outcome == "" {
		return sla.StatusResolved, nil
	}
	status, err := sla.ParseStatus(strings.ToUpper(strings.TrimSpace(cmd.Outcome)))
	if err != nil || (status != sla.StatusResolved && status != sla.StatusCancelled) {
		return "", apperrors.NewValidationError("outcome must be RESOLVED or CANCELLED", cmd.Outcome)
	}
	return status, nil
}
