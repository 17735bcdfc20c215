// Package dto holds the wire shapes of the routing read and write models.
package dto

import (
	"time"

	"github.com/hatch-crm/hatch/internal/application/routing/services"
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/domain/sla"
)

// RouteEventDTO is one audit log entry.
type RouteEventDTO struct {
	ID         string    `json:"id"`
	RecordID   string    `json:"recordId"`
	Object     string    `json:"object"`
	Kind       string    `json:"kind"`
	RuleID     *string   `json:"ruleId"`
	Decision   string    `json:"decision"`
	Reason     string    `json:"reason"`
	PoolID     string    `json:"poolId,omitempty"`
	LatencyMs  *int64    `json:"latencyMs,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func ToRouteEventDTO(e *routeevent.Event) *RouteEventDTO {
	if e == nil {
		return nil
	}
	return &RouteEventDTO{
		ID:         e.ID,
		RecordID:   e.RecordID,
		Object:     e.Object,
		Kind:       string(e.Kind),
		RuleID:     e.RuleID,
		Decision:   e.Decision,
		Reason:     e.Reason,
		PoolID:     e.PoolID,
		LatencyMs:  e.LatencyMs,
		OccurredAt: e.OccurredAt,
	}
}

func ToRouteEventDTOs(events []*routeevent.Event) []*RouteEventDTO {
	out := make([]*RouteEventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, ToRouteEventDTO(e))
	}
	return out
}

// CapacityDTO is one row of the capacity view.
type CapacityDTO struct {
	OwnerID     string    `json:"ownerId"`
	ActiveCount int       `json:"activeCount"`
	MaxCapacity int       `json:"maxCapacity"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func ToCapacityDTO(s capacity.Snapshot) CapacityDTO {
	return CapacityDTO{
		OwnerID:     s.OwnerID,
		ActiveCount: s.ActiveCount,
		MaxCapacity: s.MaxCapacity,
		LastUpdated: s.LastUpdated,
	}
}

func ToCapacityDTOs(snaps []capacity.Snapshot) []CapacityDTO {
	out := make([]CapacityDTO, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, ToCapacityDTO(s))
	}
	return out
}

// TimerDTO summarises an SLA timer.
type TimerDTO struct {
	ID         string     `json:"id"`
	RecordID   string     `json:"recordId"`
	OwnerID    string     `json:"ownerId"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	DeadlineAt time.Time  `json:"deadlineAt"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
}

func ToTimerDTO(t *sla.Timer) *TimerDTO {
	if t == nil {
		return nil
	}
	return &TimerDTO{
		ID:         t.ID(),
		RecordID:   t.RecordID(),
		OwnerID:    t.OwnerID(),
		Status:     string(t.Status()),
		StartedAt:  t.StartedAt(),
		DeadlineAt: t.DeadlineAt(),
		ClosedAt:   t.ClosedAt(),
	}
}

// DecisionDTO is the outcome of routing one record.
type DecisionDTO struct {
	RecordID string       `json:"recordId"`
	Status   string       `json:"status"`
	OwnerID  string       `json:"ownerId,omitempty"`
	PoolID   string       `json:"poolId,omitempty"`
	RuleID   *string      `json:"ruleId"`
	Reason   string       `json:"reason"`
	EventID  string       `json:"eventId"`
	Timer    *TimerDTO    `json:"timer,omitempty"`
	Capacity *CapacityDTO `json:"capacity,omitempty"`
}

// Decision statuses.
const (
	DecisionStatusAssigned   = "assigned"
	DecisionStatusUnassigned = "unassigned"
)

func ToDecisionDTO(recordID string, d *services.Decision, timer *sla.Timer) *DecisionDTO {
	out := &DecisionDTO{
		RecordID: recordID,
		Status:   DecisionStatusAssigned,
		OwnerID:  d.OwnerID,
		PoolID:   d.PoolID,
		RuleID:   d.RuleID,
		Reason:   d.Reason,
		Timer:    ToTimerDTO(timer),
	}
	if d.Event != nil {
		out.EventID = d.Event.ID
	}
	if d.Capacity != nil {
		c := ToCapacityDTO(*d.Capacity)
		out.Capacity = &c
	}
	return out
}

func ToUnassignedDTO(recordID string, ue *services.UnassignedError) *DecisionDTO {
	out := &DecisionDTO{
		RecordID: recordID,
		Status:   DecisionStatusUnassigned,
		PoolID:   ue.PoolID,
		Reason:   ue.Reason,
	}
	if ue.Event != nil {
		out.EventID = ue.Event.ID
		out.RuleID = ue.Event.RuleID
	}
	return out
}

// ValidationDTO is the gate outcome for one transition.
type ValidationDTO struct {
	Allowed    bool                 `json:"allowed"`
	Violations []services.Violation `json:"violations"`
}
