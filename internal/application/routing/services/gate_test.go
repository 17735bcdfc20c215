package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/application/testutil"
	"github.com/hatch-crm/hatch/internal/domain/condition"
	"github.com/hatch-crm/hatch/internal/domain/rule"
)

func TestGate_BlocksMissingRequiredField(t *testing.T) {
	rules := testutil.NewMockRuleRepository()
	rules.Seed(testutil.NewRule(t, 1, "rl_close", "ticket", "closing needs reason", rule.FamilyValidation,
		`{"if":"status in ['Resolved','Closed']","then_required":["resolution_code"]}`))
	gate := NewGate(rules)

	violations, err := gate.Validate(context.Background(), "org1", "ticket", "", condition.Snapshot{"status": "Closed"})
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "rl_close", violations[0].RuleID)
	assert.Equal(t, "resolution_code", violations[0].Field)
	assert.Contains(t, violations[0].Message, "closing needs reason")

	violations, err = gate.Validate(context.Background(), "org1", "ticket", "",
		condition.Snapshot{"status": "Closed", "resolution_code": "FIXED"})
	require.NoError(t, err)
	assert.NotNil(t, violations)
	assert.Empty(t, violations)
}

func TestGate_CollectsAcrossAllMatchingRules(t *testing.T) {
	rules := testutil.NewMockRuleRepository()
	rules.Seed(
		testutil.NewRule(t, 1, "rl_a", "ticket", "a", rule.FamilyValidation,
			`{"if":"status == 'Closed'","then_required":["resolution_code","closed_by"]}`),
		testutil.NewRule(t, 2, "rl_b", "ticket", "b", rule.FamilyValidation,
			`{"if":"priority >= 3","then_required":["root_cause"]}`),
		testutil.NewRule(t, 3, "rl_c", "ticket", "c", rule.FamilyValidation,
			`{"if":"priority >= 9","then_required":["vp_signoff"]}`),
	)
	gate := NewGate(rules)

	snap := condition.Snapshot{"status": "Closed", "priority": float64(4), "closed_by": "  "}
	violations, err := gate.Validate(context.Background(), "org1", "ticket", "", snap)
	require.NoError(t, err)

	fields := make([]string, 0, len(violations))
	for _, v := range violations {
		fields = append(fields, v.Field)
	}
	assert.Equal(t, []string{"resolution_code", "closed_by", "root_cause"}, fields)
	assert.Equal(t, "  ", snap["closed_by"])
}

func TestGate_MatchesOnTransition(t *testing.T) {
	rules := testutil.NewMockRuleRepository()
	rules.Seed(testutil.NewRule(t, 1, "rl_t", "deal", "won needs amount", rule.FamilyValidation,
		`{"if":"transition == 'won'","then_required":["amount"]}`))
	gate := NewGate(rules)

	snap := condition.Snapshot{"stage": "negotiation"}
	violations, err := gate.Validate(context.Background(), "org1", "deal", "won", snap)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "amount", violations[0].Field)
	_, leaked := snap[TransitionField]
	assert.False(t, leaked)

	violations, err = gate.Validate(context.Background(), "org1", "deal", "lost", snap)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestGate_IgnoresOtherObjectsAndInactiveRules(t *testing.T) {
	rules := testutil.NewMockRuleRepository()
	inactive, err := rule.NewRule("rl_off", "org1", "ticket", "off", rule.FamilyValidation,
		[]byte(`{"if":"status == 'Closed'","then_required":["x"]}`), false, testutil.BaseTime)
	require.NoError(t, err)
	rules.Seed(
		inactive,
		testutil.NewRule(t, 1, "rl_lead", "lead", "lead only", rule.FamilyValidation,
			`{"if":"status == 'Closed'","then_required":["y"]}`),
	)

	violations, err := NewGate(rules).Validate(context.Background(), "org1", "ticket", "", condition.Snapshot{"status": "Closed"})
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestGate_PropagatesLoadError(t *testing.T) {
	rules := testutil.NewMockRuleRepository()
	rules.ListActiveErr = errors.New("timeout")

	_, err := NewGate(rules).Validate(context.Background(), "org1", "ticket", "", condition.Snapshot{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load validation rules")
}
