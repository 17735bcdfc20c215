package services

import (
	"context"
	"fmt"

	"github.com/hatch-crm/hatch/internal/domain/condition"
	"github.com/hatch-crm/hatch/internal/domain/rule"
)

// TransitionField is the snapshot key the gate fills with the requested
// transition so validation rules can match on it.
const TransitionField = "transition"

// Violation is one required field missing under one matching rule.
type Violation struct {
	RuleID   string `json:"ruleId"`
	RuleName string `json:"ruleName"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// Gate evaluates validation rules against a record transition.
type Gate struct {
	rules RuleSource
}

func NewGate(rules RuleSource) *Gate {
	return &Gate{rules: rules}
}

// Validate returns every violation across all matching rules. An empty
// result means the transition may proceed. The snapshot is not modified.
func (g *Gate) Validate(ctx context.Context, orgID, object, transition string, snap condition.Snapshot) ([]Violation, error) {
	rules, err := g.rules.ListActive(ctx, orgID, object, rule.FamilyValidation)
	if err != nil {
		return nil, fmt.Errorf("load validation rules: %w", err)
	}

	view := snap
	if _, ok := snap[TransitionField]; !ok && transition != "" {
		view = make(condition.Snapshot, len(snap)+1)
		for k, v := range snap {
			view[k] = v
		}
		view[TransitionField] = transition
	}

	violations := []Violation{}
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := condition.Evaluate(r.Policy().Condition, view)
		if err != nil {
			return nil, fmt.Errorf("evaluate rule %s: %w", r.ID(), err)
		}
		if !ok {
			continue
		}
		for _, field := range r.Policy().RequiredFields {
			if view.IsBlank(field) {
				violations = append(violations, Violation{
					RuleID:   r.ID(),
					RuleName: r.Name(),
					Field:    field,
					Message:  fmt.Sprintf("%s is required by rule %q", field, r.Name()),
				})
			}
		}
	}
	return violations, nil
}
