package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/hatch-crm/hatch/internal/application/routing/dto"
	"github.com/hatch-crm/hatch/internal/application/routing/services"
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/condition"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/domain/sla"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/id"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// Default admission transitions.
const (
	TransitionCreate    = "create"
	TransitionRequalify = "requalify"
)

// AdmitRecordCommand admits a new or requalified record.
type AdmitRecordCommand struct {
	OrgID    string
	Object   string
	RecordID string
	// Transition defaults to create, or requalify when Requalify is set.
	Transition string
	Record     map[string]any
	// Requalify replaces a live SLA timer instead of rejecting the request.
	Requalify  bool
	ReceivedAt *time.Time
}

// AdmitRecordUseCase validates a record, assigns an owner and starts its SLA timer.
type AdmitRecordUseCase struct {
	gate      TransitionValidator
	assigner  RecordAssigner
	events    routeevent.Repository
	timers    sla.Repository
	tracker   *capacity.Tracker
	tx        services.TxRunner
	clock     biztime.Clock
	slaWindow time.Duration
	logger    logger.Interface
}

func NewAdmitRecordUseCase(
	gate TransitionValidator,
	assigner RecordAssigner,
	events routeevent.Repository,
	timers sla.Repository,
	tracker *capacity.Tracker,
	tx services.TxRunner,
	clock biztime.Clock,
	slaWindow time.Duration,
	logger logger.Interface,
) *AdmitRecordUseCase {
	return &AdmitRecordUseCase{
		gate:      gate,
		assigner:  assigner,
		events:    events,
		timers:    timers,
		tracker:   tracker,
		tx:        tx,
		clock:     clock,
		slaWindow: slaWindow,
		logger:    logger,
	}
}

// Execute runs validate, assign and timer start. A blocked record returns a
// validation_failed error with the violations attached; an unplaced record
// returns no_eligible_assignee carrying the backlog decision.
func (uc *AdmitRecordUseCase) Execute(ctx context.Context, cmd AdmitRecordCommand) (*dto.DecisionDTO, error) {
	uc.logger.Infow("executing admit record use case",
		"object", cmd.Object, "record_id", cmd.RecordID, "requalify", cmd.Requalify)

	if err := uc.validateCommand(cmd); err != nil {
		return nil, err
	}
	transition := cmd.Transition
	if transition == "" {
		transition = TransitionCreate
		if cmd.Requalify {
			transition = TransitionRequalify
		}
	}

	snap := condition.Flatten(cmd.Record)
	violations, err := uc.gate.Validate(ctx, cmd.OrgID, cmd.Object, transition, snap)
	if err != nil {
		uc.logger.Errorw("failed to validate record", "record_id", cmd.RecordID, "error", err)
		return nil, apperrors.NewInternalError("failed to evaluate validation rules")
	}
	if err := uc.events.Append(ctx, validationEvents(cmd.OrgID, cmd.Object, cmd.RecordID, transition, violations, uc.clock.Now())...); err != nil {
		uc.logger.Errorw("failed to record validation events", "record_id", cmd.RecordID, "error", err)
		return nil, apperrors.NewInternalError("failed to record validation outcome")
	}
	if len(violations) > 0 {
		uc.logger.Infow("record admission blocked", "record_id", cmd.RecordID, "violations", len(violations))
		return nil, apperrors.NewValidationFailedError("record failed validation", violations)
	}

	live, err := uc.findLiveTimer(ctx, cmd)
	if err != nil {
		return nil, err
	}
	kind := routeevent.KindAssignment
	releasing := ""
	if live != nil {
		kind = routeevent.KindReassignment
		releasing = live.OwnerID()
	}

	var timer *sla.Timer
	decision, err := uc.assigner.Assign(ctx, services.AssignRequest{
		OrgID:      cmd.OrgID,
		Object:     cmd.Object,
		RecordID:   cmd.RecordID,
		Snapshot:   snap,
		Kind:       kind,
		Releasing:  releasing,
		ReceivedAt: cmd.ReceivedAt,
		Then: func(txCtx context.Context, d *services.Decision) error {
			if live != nil {
				// one live timer per record, so cancel before create
				if err := uc.cancelTimer(txCtx, live.Clone(), d.Event.OccurredAt); err != nil {
					return err
				}
			}
			t, err := sla.NewTimer(id.NewSLATimerID(), cmd.OrgID, cmd.RecordID, cmd.Object,
				d.OwnerID, d.PoolID, d.Event.OccurredAt, uc.slaWindow)
			if err != nil {
				return err
			}
			t.AttachSnapshot(snap)
			if err := uc.timers.Create(txCtx, t); err != nil {
				return err
			}
			timer = t
			return nil
		},
	})
	var unassigned *services.UnassignedError
	if live != nil && errors.As(err, &unassigned) {
		// nobody can take the record; it leaves its owner for the backlog
		if cerr := uc.dropToBacklog(ctx, live); cerr != nil {
			return nil, cerr
		}
	}
	if err != nil {
		uc.logger.Warnw("record admission did not assign", "record_id", cmd.RecordID, "error", err)
		return nil, mapAssignError(cmd.RecordID, err, func(ue *services.UnassignedError) any {
			return dto.ToUnassignedDTO(cmd.RecordID, ue)
		})
	}

	if timer == nil {
		uc.logger.Errorw("assignment committed without an SLA timer", "record_id", cmd.RecordID)
		return nil, apperrors.NewInternalError("failed to start SLA timer")
	}
	if live != nil {
		uc.logger.Infow("live timer replaced on requalification",
			"record_id", cmd.RecordID, "timer_id", live.ID(), "previous_owner_id", live.OwnerID())
	}
	uc.logger.Infow("record admitted",
		"record_id", cmd.RecordID, "owner_id", decision.OwnerID, "timer_id", timer.ID())
	return dto.ToDecisionDTO(cmd.RecordID, decision, timer), nil
}

// findLiveTimer returns the record's live timer, or nil when it has none.
// A live timer without Requalify is a conflict.
func (uc *AdmitRecordUseCase) findLiveTimer(ctx context.Context, cmd AdmitRecordCommand) (*sla.Timer, error) {
	live, err := uc.timers.GetLiveByRecord(ctx, cmd.OrgID, cmd.RecordID)
	if errors.Is(err, sla.ErrTimerNotFound) {
		return nil, nil
	}
	if err != nil {
		uc.logger.Errorw("failed to load live timer", "record_id", cmd.RecordID, "error", err)
		return nil, apperrors.NewInternalError("failed to load SLA timer")
	}
	if !cmd.Requalify {
		return nil, apperrors.NewConflictError("record is already admitted, requalify to reroute it", cmd.RecordID)
	}
	return live, nil
}

func (uc *AdmitRecordUseCase) cancelTimer(ctx context.Context, t *sla.Timer, now time.Time) error {
	prev := t.Version()
	if err := t.Close(sla.StatusCancelled, now); err != nil {
		return err
	}
	return uc.timers.Update(ctx, t, prev)
}

// dropToBacklog cancels the live timer and frees its owner's slot after a
// requalification found no eligible assignee.
func (uc *AdmitRecordUseCase) dropToBacklog(ctx context.Context, live *sla.Timer) error {
	err := uc.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.cancelTimer(txCtx, live.Clone(), uc.clock.Now()); err != nil {
			return err
		}
		return uc.tracker.Release(txCtx, live.OwnerID(), uc.clock.Now())
	})
	if errors.Is(err, sla.ErrTimerConflict) {
		return apperrors.NewConflictError("record timer changed concurrently", live.RecordID())
	}
	if err != nil {
		uc.logger.Errorw("failed to cancel live timer", "record_id", live.RecordID(), "timer_id", live.ID(), "error", err)
		return apperrors.NewInternalError("failed to cancel SLA timer")
	}
	uc.logger.Infow("requalified record moved to backlog",
		"record_id", live.RecordID(), "timer_id", live.ID(), "owner_id", live.OwnerID())
	return nil
}

func (uc *AdmitRecordUseCase) validateCommand(cmd AdmitRecordCommand) error {
	if cmd.Object == "" {
		return apperrors.NewValidationError("object is required")
	}
	if cmd.RecordID == "" {
		return apperrors.NewValidationError("record ID is required")
	}
	if cmd.Record == nil {
		return apperrors.NewValidationError("record is required")
	}
	return nil
}
