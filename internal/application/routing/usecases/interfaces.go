package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hatch-crm/hatch/internal/application/routing/services"
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/condition"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/domain/sla"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/id"
)

// TransitionValidator checks a record transition against validation rules.
type TransitionValidator interface {
	Validate(ctx context.Context, orgID, object, transition string, snap condition.Snapshot) ([]services.Violation, error)
}

// RecordAssigner picks and commits an owner for a record.
type RecordAssigner interface {
	Assign(ctx context.Context, req services.AssignRequest) (*services.Decision, error)
}

// validationEvents builds the audit entries for one gate pass: one blocked
// event per violating rule, or a single allowed event.
func validationEvents(orgID, object, recordID, transition string, violations []services.Violation, now time.Time) []*routeevent.Event {
	now = now.UTC()
	if len(violations) == 0 {
		return []*routeevent.Event{{
			ID:         id.NewRouteEventID(),
			OrgID:      orgID,
			RecordID:   recordID,
			Object:     object,
			Kind:       routeevent.KindValidation,
			Decision:   routeevent.DecisionAllowed,
			Reason:     fmt.Sprintf("transition %q allowed", transitionLabel(transition)),
			OccurredAt: now,
		}}
	}

	var order []string
	missing := make(map[string][]string)
	names := make(map[string]string)
	for _, v := range violations {
		if _, seen := missing[v.RuleID]; !seen {
			order = append(order, v.RuleID)
			names[v.RuleID] = v.RuleName
		}
		missing[v.RuleID] = append(missing[v.RuleID], v.Field)
	}

	out := make([]*routeevent.Event, 0, len(order))
	for _, ruleID := range order {
		ruleID := ruleID
		out = append(out, &routeevent.Event{
			ID:       id.NewRouteEventID(),
			OrgID:    orgID,
			RecordID: recordID,
			Object:   object,
			Kind:     routeevent.KindValidation,
			RuleID:   &ruleID,
			Decision: routeevent.DecisionBlocked,
			Reason: fmt.Sprintf("rule %q blocked transition %q: missing %s",
				names[ruleID], transitionLabel(transition), strings.Join(missing[ruleID], ", ")),
			OccurredAt: now,
		})
	}
	return out
}

func transitionLabel(t string) string {
	if t == "" {
		return "update"
	}
	return t
}

// mapAssignError translates engine failures into application errors.
func mapAssignError(recordID string, err error, unassigned func(*services.UnassignedError) any) error {
	var ue *services.UnassignedError
	switch {
	case errors.As(err, &ue):
		return apperrors.NewNoEligibleAssigneeError("no eligible assignee", ue.Reason).WithPayload(unassigned(ue))
	case errors.Is(err, capacity.ErrCapacityRace):
		return apperrors.NewCapacityRaceError("capacity changed concurrently, retry the request", recordID)
	case errors.Is(err, sla.ErrTimerConflict):
		return apperrors.NewConflictError("record was routed concurrently", recordID)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case apperrors.IsAppError(err):
		return err
	default:
		return apperrors.NewInternalError("failed to assign record")
	}
}
