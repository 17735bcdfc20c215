// Package routeevent is the append-only audit log of routing and validation decisions.
package routeevent

import (
	"context"
	"time"
)

// Kind classifies what produced an event.
type Kind string

const (
	KindAssignment   Kind = "assignment"
	KindReassignment Kind = "reassignment"
	KindValidation   Kind = "validation"
)

// Decision values other than an owner ID.
const (
	DecisionUnassigned = "unassigned"
	DecisionAllowed    = "allowed"
	DecisionBlocked    = "blocked"
)

// Event is one immutable decision record. RuleID is nil for fallback routing
// and for allowed validations. LatencyMs is set on assignment events whose
// caller supplied the record's receive time.
type Event struct {
	ID         string
	OrgID      string
	RecordID   string
	Object     string
	Kind       Kind
	RuleID     *string
	Decision   string
	Reason     string
	PoolID     string
	LatencyMs  *int64
	OccurredAt time.Time
}

// IsAssigned reports whether the event placed the record with an owner.
func (e *Event) IsAssigned() bool {
	if e.Kind == KindValidation {
		return false
	}
	return e.Decision != DecisionUnassigned && e.Decision != ""
}

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	OrgID    string
	Object   string
	RecordID string
	Decision string
	Kind     Kind
	RuleID   string

	AfterOccurredAt time.Time
	AfterID         string
	Limit           int
}

// RuleHit counts events attributed to one rule.
type RuleHit struct {
	RuleID string
	Kind   Kind
	Hits   int64
}

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Repository appends and reads events. There is no update or delete.
type Repository interface {
	Append(ctx context.Context, events ...*Event) error
	// List returns events ordered by (occurredAt, id) ascending.
	List(ctx context.Context, filter Filter) ([]*Event, error)
	RuleHits(ctx context.Context, orgID string, w Window) ([]RuleHit, error)
	// AverageLatencyMs averages first-assignment latency in the window; ok is
	// false when no event carries a latency.
	AverageLatencyMs(ctx context.Context, orgID string, w Window) (avg float64, ok bool, err error)
	CountByDecision(ctx context.Context, orgID string, w Window, decision string) (int64, error)
}
