// Package services holds the SLA sweep: status recomputation, breach
// escalation and the ports it drives.
package services

import (
	"context"
	"fmt"
	"time"

	routing "github.com/hatch-crm/hatch/internal/application/routing/services"
)

// Assigner picks a replacement owner for an escalated record.
type Assigner interface {
	Assign(ctx context.Context, req routing.AssignRequest) (*routing.Decision, error)
}

// Escalation describes one breached timer handed to the notifier.
type Escalation struct {
	OrgID           string
	TimerID         string
	RecordID        string
	Object          string
	PreviousOwnerID string
	// NewOwnerID is empty in notify-only mode or when nobody could take the record.
	NewOwnerID string
	PoolID     string
	DeadlineAt time.Time
	BreachedAt time.Time
	Episode    int
}

// Notifier delivers escalation notices. Failures are logged by the sweep and
// never undo the escalation.
type Notifier interface {
	NotifyEscalation(ctx context.Context, e Escalation) error
}

// EscalationMode selects what a breach triggers.
type EscalationMode string

const (
	EscalateReassign EscalationMode = "reassign"
	EscalateNotify   EscalationMode = "notify"
	EscalateBoth     EscalationMode = "both"
)

func ParseEscalationMode(s string) (EscalationMode, error) {
	switch m := EscalationMode(s); m {
	case EscalateReassign, EscalateNotify, EscalateBoth:
		return m, nil
	case "":
		return EscalateBoth, nil
	default:
		return "", fmt.Errorf("unknown escalation mode %q", s)
	}
}

func (m EscalationMode) reassigns() bool { return m == EscalateReassign || m == EscalateBoth }
func (m EscalationMode) notifies() bool  { return m == EscalateNotify || m == EscalateBoth }
