package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/condition"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/domain/rule"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	"github.com/hatch-crm/hatch/internal/shared/id"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// ErrNoEligibleAssignee means the selected pool is empty or every candidate
// is full or excluded.
var ErrNoEligibleAssignee = errors.New("no eligible assignee")

// UnassignedError carries the backlog event written for an unassigned record.
type UnassignedError struct {
	PoolID string
	Reason string
	Event  *routeevent.Event
}

func (e *UnassignedError) Error() string {
	return fmt.Sprintf("no eligible assignee in pool %q: %s", e.PoolID, e.Reason)
}

func (e *UnassignedError) Unwrap() error { return ErrNoEligibleAssignee }

// EngineConfig holds the routing knobs.
type EngineConfig struct {
	DefaultPoolID               string
	StaticOwnerConsumesCapacity bool
}

// AssignRequest asks for an owner for one record.
type AssignRequest struct {
	OrgID    string
	Object   string
	RecordID string
	Snapshot condition.Snapshot
	// Kind is KindAssignment or KindReassignment.
	Kind routeevent.Kind
	// Exclude lists owners that must not be chosen.
	Exclude []string
	// Releasing is the owner currently holding this record. Its slot is freed
	// in the assignment transaction and does not count against it during
	// selection. Nothing is released when the record stays unassigned.
	Releasing string
	// ReceivedAt, when set, stamps first-assignment latency on the event.
	ReceivedAt *time.Time
	// Then runs inside the assignment transaction after the capacity claim
	// and event append. An error rolls all of it back.
	Then func(ctx context.Context, d *Decision) error
}

// Decision is a committed assignment.
type Decision struct {
	OwnerID  string
	PoolID   string
	RuleID   *string
	Reason   string
	Capacity *capacity.Snapshot
	Event    *routeevent.Event
}

// Engine selects owners from assignment rules and pool capacity.
type Engine struct {
	rules     RuleSource
	tracker   *capacity.Tracker
	events    routeevent.Repository
	locker    PoolLocker
	tx        TxRunner
	publisher EventPublisher
	clock     biztime.Clock
	cfg       EngineConfig
	logger    logger.Interface
}

func NewEngine(
	rules RuleSource,
	tracker *capacity.Tracker,
	events routeevent.Repository,
	locker PoolLocker,
	tx TxRunner,
	publisher EventPublisher,
	clock biztime.Clock,
	cfg EngineConfig,
	log logger.Interface,
) *Engine {
	return &Engine{
		rules:     rules,
		tracker:   tracker,
		events:    events,
		locker:    locker,
		tx:        tx,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    log.Named("assignment_engine"),
	}
}

// Assign evaluates active assignment rules in creation order; the first
// matching rule decides. With no match the default pool is used.
func (e *Engine) Assign(ctx context.Context, req AssignRequest) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Kind == "" {
		req.Kind = routeevent.KindAssignment
	}
	exclude := make(map[string]bool, len(req.Exclude))
	for _, o := range req.Exclude {
		exclude[o] = true
	}

	rules, err := e.rules.ListActive(ctx, req.OrgID, req.Object, rule.FamilyAssignment)
	if err != nil {
		return nil, fmt.Errorf("load assignment rules: %w", err)
	}

	var skipped []string
	for _, r := range rules {
		matched, err := condition.Evaluate(r.Policy().Condition, req.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("evaluate rule %s: %w", r.ID(), err)
		}
		if !matched {
			continue
		}

		ruleID := r.ID()
		action := r.Policy().Action
		switch action.Kind {
		case rule.ActionStaticOwner:
			if exclude[action.OwnerID] {
				skipped = append(skipped, fmt.Sprintf("rule %q (%s) skipped: owner %s excluded", r.Name(), ruleID, action.OwnerID))
				continue
			}
			reason := fmt.Sprintf("rule %q (%s) matched: static_owner %s", r.Name(), ruleID, action.OwnerID)
			return e.assignStatic(ctx, req, &ruleID, action.OwnerID, withSkipped(skipped, reason))
		case rule.ActionLeastLoadedQueue:
			reason := fmt.Sprintf("rule %q (%s) matched: least_loaded_queue %s", r.Name(), ruleID, action.PoolID)
			return e.assignFromPool(ctx, req, &ruleID, action.PoolID, exclude, withSkipped(skipped, reason))
		}
	}

	reason := fmt.Sprintf("no assignment rule matched: default pool %s", e.cfg.DefaultPoolID)
	return e.assignFromPool(ctx, req, nil, e.cfg.DefaultPoolID, exclude, withSkipped(skipped, reason))
}

func withSkipped(skipped []string, reason string) string {
	for i := len(skipped) - 1; i >= 0; i-- {
		reason = skipped[i] + "; " + reason
	}
	return reason
}

func (e *Engine) assignStatic(ctx context.Context, req AssignRequest, ruleID *string, ownerID, reason string) (*Decision, error) {
	now := e.clock.Now()
	d := &Decision{OwnerID: ownerID, RuleID: ruleID, Reason: reason}

	err := e.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		keeps := req.Releasing == ownerID
		if e.cfg.StaticOwnerConsumesCapacity && !keeps {
			snap, err := e.tracker.ForceClaim(txCtx, ownerID, now)
			if err != nil {
				return err
			}
			d.Capacity = &snap
		}
		if req.Releasing != "" && !keeps {
			if err := e.tracker.Release(txCtx, req.Releasing, now); err != nil {
				return fmt.Errorf("release %s: %w", req.Releasing, err)
			}
		}
		return e.appendDecision(txCtx, req, d, now)
	})
	if err != nil {
		e.logger.Errorw("static assignment failed", "record_id", req.RecordID, "owner_id", ownerID, "error", err)
		return nil, err
	}

	e.afterCommit(ctx, d)
	return d, nil
}

// assignFromPool holds the pool lock across read, pick and claim. A lost
// capacity race is retried once against fresh state.
func (e *Engine) assignFromPool(ctx context.Context, req AssignRequest, ruleID *string, poolID string, exclude map[string]bool, reason string) (*Decision, error) {
	unlock, err := e.locker.Lock(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("lock pool %s: %w", poolID, err)
	}
	defer unlock()

	for attempt := 0; attempt < 2; attempt++ {
		snaps, err := e.tracker.PoolSnapshots(ctx, poolID)
		if err != nil {
			return nil, err
		}
		chosen, ok := capacity.SelectLeastLoaded(withoutRecord(snaps, req.Releasing), exclude)
		if !ok {
			why := "pool is empty"
			if len(snaps) > 0 {
				why = fmt.Sprintf("all %d candidates are full or excluded", len(snaps))
			}
			return nil, e.recordUnassigned(ctx, req, ruleID, poolID, reason+"; "+why)
		}

		now := e.clock.Now()
		d := &Decision{
			OwnerID: chosen.OwnerID,
			PoolID:  poolID,
			RuleID:  ruleID,
			Reason:  fmt.Sprintf("%s -> %s (active %d/%d)", reason, chosen.OwnerID, chosen.ActiveCount, chosen.MaxCapacity),
		}
		err = e.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
			if chosen.OwnerID == req.Releasing {
				// The record stays with its owner; the slot carries over.
				held := storedSnapshot(snaps, chosen.OwnerID)
				d.Capacity = &held
				return e.appendDecision(txCtx, req, d, now)
			}
			snap, err := e.tracker.Claim(txCtx, storedSnapshot(snaps, chosen.OwnerID), now)
			if err != nil {
				return err
			}
			d.Capacity = &snap
			if req.Releasing != "" {
				if err := e.tracker.Release(txCtx, req.Releasing, now); err != nil {
					return fmt.Errorf("release %s: %w", req.Releasing, err)
				}
			}
			return e.appendDecision(txCtx, req, d, now)
		})
		if errors.Is(err, capacity.ErrCapacityRace) {
			e.logger.Warnw("capacity race detected, retrying",
				"pool_id", poolID, "owner_id", chosen.OwnerID, "record_id", req.RecordID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			e.logger.Errorw("pool assignment failed", "pool_id", poolID, "record_id", req.RecordID, "error", err)
			return nil, err
		}

		e.afterCommit(ctx, d)
		return d, nil
	}
	return nil, fmt.Errorf("assign from pool %s: %w", poolID, capacity.ErrCapacityRace)
}

// withoutRecord returns snaps with the releasing owner's count lowered by the
// slot this record holds.
func withoutRecord(snaps []capacity.Snapshot, releasing string) []capacity.Snapshot {
	if releasing == "" {
		return snaps
	}
	view := make([]capacity.Snapshot, len(snaps))
	copy(view, snaps)
	for i := range view {
		if view[i].OwnerID == releasing && view[i].ActiveCount > 0 {
			view[i].ActiveCount--
		}
	}
	return view
}

// storedSnapshot finds the snapshot as read, which carries the count the
// compare-and-swap expects.
func storedSnapshot(snaps []capacity.Snapshot, ownerID string) capacity.Snapshot {
	for _, s := range snaps {
		if s.OwnerID == ownerID {
			return s
		}
	}
	return capacity.Snapshot{OwnerID: ownerID}
}

func (e *Engine) appendDecision(ctx context.Context, req AssignRequest, d *Decision, now time.Time) error {
	ev := &routeevent.Event{
		ID:         id.NewRouteEventID(),
		OrgID:      req.OrgID,
		RecordID:   req.RecordID,
		Object:     req.Object,
		Kind:       req.Kind,
		RuleID:     d.RuleID,
		Decision:   d.OwnerID,
		Reason:     d.Reason,
		PoolID:     d.PoolID,
		OccurredAt: now.UTC(),
	}
	if req.ReceivedAt != nil && req.Kind == routeevent.KindAssignment {
		ms := now.Sub(*req.ReceivedAt).Milliseconds()
		if ms < 0 {
			ms = 0
		}
		ev.LatencyMs = &ms
	}
	if err := e.events.Append(ctx, ev); err != nil {
		return fmt.Errorf("append route event: %w", err)
	}
	d.Event = ev
	if req.Then != nil {
		return req.Then(ctx, d)
	}
	return nil
}

func (e *Engine) recordUnassigned(ctx context.Context, req AssignRequest, ruleID *string, poolID, reason string) error {
	ev := &routeevent.Event{
		ID:         id.NewRouteEventID(),
		OrgID:      req.OrgID,
		RecordID:   req.RecordID,
		Object:     req.Object,
		Kind:       req.Kind,
		RuleID:     ruleID,
		Decision:   routeevent.DecisionUnassigned,
		Reason:     reason,
		PoolID:     poolID,
		OccurredAt: e.clock.Now().UTC(),
	}
	if err := e.events.Append(ctx, ev); err != nil {
		e.logger.Errorw("failed to record unassigned event", "record_id", req.RecordID, "pool_id", poolID, "error", err)
		return fmt.Errorf("append unassigned event: %w", err)
	}
	e.logger.Warnw("record left unassigned", "record_id", req.RecordID, "pool_id", poolID, "reason", reason)
	e.publish(ctx, ev)
	return &UnassignedError{PoolID: poolID, Reason: reason, Event: ev}
}

func (e *Engine) afterCommit(ctx context.Context, d *Decision) {
	e.logger.Infow("record assigned",
		"record_id", d.Event.RecordID,
		"owner_id", d.OwnerID,
		"pool_id", d.PoolID,
		"kind", d.Event.Kind)
	e.publish(ctx, d.Event)
}

func (e *Engine) publish(ctx context.Context, ev *routeevent.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishRouteEvents(ctx, ev); err != nil {
		e.logger.Warnw("failed to publish route event", "event_id", ev.ID, "error", err)
	}
}
