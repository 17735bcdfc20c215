package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/application/routing/dto"
	"github.com/hatch-crm/hatch/internal/application/routing/services"
	"github.com/hatch-crm/hatch/internal/application/testutil"
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/condition"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/domain/rule"
	"github.com/hatch-crm/hatch/internal/domain/sla"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
)

func TestAdmitRecord_StaticRuleStartsTimer(t *testing.T) {
	f := newRoutingFixture(t)
	f.rules.Seed(testutil.NewRule(t, 1, "rl_big", "opportunities", "big deals", rule.FamilyAssignment,
		`{"when":"amount >= 50000","assign":{"type":"static_owner","ownerId":"U1"}}`))

	received := f.clock.Now().Add(-2 * time.Second)
	out, err := f.admitUseCase().Execute(context.Background(), AdmitRecordCommand{
		OrgID:      "org1",
		Object:     "opportunities",
		RecordID:   "R1",
		Record:     map[string]any{"amount": float64(75000)},
		ReceivedAt: &received,
	})
	require.NoError(t, err)

	assert.Equal(t, dto.DecisionStatusAssigned, out.Status)
	assert.Equal(t, "U1", out.OwnerID)
	require.NotNil(t, out.RuleID)
	assert.Equal(t, "rl_big", *out.RuleID)
	require.NotNil(t, out.Timer)
	assert.Equal(t, string(sla.StatusGreen), out.Timer.Status)
	assert.Equal(t, f.clock.Now().Add(time.Hour), out.Timer.DeadlineAt)
	assert.Equal(t, 1, f.caps.Count("U1"))

	events := f.events.All()
	require.Len(t, events, 2)
	assert.Equal(t, routeevent.KindValidation, events[0].Kind)
	assert.Equal(t, routeevent.DecisionAllowed, events[0].Decision)
	assert.Equal(t, "U1", events[1].Decision)
	require.NotNil(t, events[1].LatencyMs)
	assert.Equal(t, int64(2000), *events[1].LatencyMs)
}

func TestAdmitRecord_NestedRecordIsFlattened(t *testing.T) {
	f := newRoutingFixture(t)
	f.rules.Seed(testutil.NewRule(t, 1, "rl_geo", "lead", "west", rule.FamilyAssignment,
		`{"when":"address.region == 'west'","assign":{"type":"static_owner","ownerId":"W1"}}`))

	out, err := f.admitUseCase().Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1",
		Record: map[string]any{"address": map[string]any{"region": "west"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "W1", out.OwnerID)
}

func TestAdmitRecord_BlockedByValidation(t *testing.T) {
	f := newRoutingFixture(t)
	f.rules.Seed(testutil.NewRule(t, 1, "rl_src", "lead", "source needed", rule.FamilyValidation,
		`{"if":"transition == 'create'","then_required":["source"]}`))
	f.caps.SeedPool("default", "A")

	_, err := f.admitUseCase().Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1",
		Record: map[string]any{"source": ""},
	})
	require.Error(t, err)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeValidationFailed, appErr.Type)
	violations, ok := appErr.Payload.([]services.Violation)
	require.True(t, ok)
	require.Len(t, violations, 1)
	assert.Equal(t, "source", violations[0].Field)

	assert.Equal(t, 0, f.caps.Count("A"))
	assert.Empty(t, f.timers.All())
	events := f.events.All()
	require.Len(t, events, 1)
	assert.Equal(t, routeevent.DecisionBlocked, events[0].Decision)
	require.NotNil(t, events[0].RuleID)
	assert.Equal(t, "rl_src", *events[0].RuleID)
}

func TestAdmitRecord_UnassignedReturnsBacklogDecision(t *testing.T) {
	f := newRoutingFixture(t)

	_, err := f.admitUseCase().Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{},
	})
	require.Error(t, err)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeNoEligibleAssignee, appErr.Type)
	payload, ok := appErr.Payload.(*dto.DecisionDTO)
	require.True(t, ok)
	assert.Equal(t, dto.DecisionStatusUnassigned, payload.Status)
	assert.Equal(t, "default", payload.PoolID)
	assert.NotEmpty(t, payload.EventID)

	assert.Empty(t, f.timers.All())
	unassigned, err := f.events.List(context.Background(), routeevent.Filter{Decision: routeevent.DecisionUnassigned})
	require.NoError(t, err)
	assert.Len(t, unassigned, 1)
}

func TestAdmitRecord_RejectsSecondAdmission(t *testing.T) {
	f := newRoutingFixture(t)
	f.caps.SeedPool("default", "A", "B")
	uc := f.admitUseCase()
	cmd := AdmitRecordCommand{OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{}}

	_, err := uc.Execute(context.Background(), cmd)
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err))
	assert.Equal(t, 1, f.caps.Count("A")+f.caps.Count("B"))
}

func TestAdmitRecord_RequalifyReplacesTimer(t *testing.T) {
	f := newRoutingFixture(t)
	f.caps.SeedPool("default", "A", "B")
	uc := f.admitUseCase()

	first, err := uc.Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{},
	})
	require.NoError(t, err)
	assert.Equal(t, "A", first.OwnerID)

	f.clock.Advance(10 * time.Minute)
	second, err := uc.Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{}, Requalify: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "A", second.OwnerID)
	assert.NotEqual(t, first.Timer.ID, second.Timer.ID)
	assert.Equal(t, 1, f.caps.Count("A"))

	old := f.timers.Get(first.Timer.ID)
	require.NotNil(t, old)
	assert.Equal(t, sla.StatusCancelled, old.Status())

	events := f.events.All()
	last := events[len(events)-1]
	assert.Equal(t, routeevent.KindReassignment, last.Kind)
	assert.Nil(t, last.LatencyMs)
}

func TestAdmitRecord_RequalifyFailureKeepsLiveTimer(t *testing.T) {
	f := newRoutingFixture(t)
	f.caps.SeedPool("default", "A")
	uc := f.admitUseCase()

	first, err := uc.Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{},
	})
	require.NoError(t, err)
	require.Equal(t, "A", first.OwnerID)

	// the requalified record moves to B, then the new timer cannot be stored
	f.rules.Seed(testutil.NewRule(t, 1, "rl_vip", "lead", "vip to B", rule.FamilyAssignment,
		`{"when":"tier == 'vip'","assign":{"type":"static_owner","ownerId":"B"}}`))
	f.timers.CreateErr = errors.New("insert failed")
	f.clock.Advance(10 * time.Minute)

	_, err = uc.Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{"tier": "vip"}, Requalify: true,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.GetAppError(err).Type)

	old := f.timers.Get(first.Timer.ID)
	require.NotNil(t, old)
	assert.True(t, old.IsLive())
	assert.Equal(t, sla.StatusGreen, old.Status())
	assert.Equal(t, "A", old.OwnerID())
	assert.Len(t, f.timers.All(), 1)
	assert.Equal(t, 1, f.caps.Count("A"))
	assert.Equal(t, 0, f.caps.Count("B"))

	reassigned, err := f.events.List(context.Background(), routeevent.Filter{Kind: routeevent.KindReassignment})
	require.NoError(t, err)
	assert.Empty(t, reassigned)

	// the same requalification goes through once the store recovers
	f.timers.CreateErr = nil
	second, err := uc.Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{"tier": "vip"}, Requalify: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "B", second.OwnerID)
	assert.Equal(t, sla.StatusCancelled, f.timers.Get(first.Timer.ID).Status())
	assert.Equal(t, 0, f.caps.Count("A"))
	assert.Equal(t, 1, f.caps.Count("B"))
}

func TestAdmitRecord_RequalifyWithoutAssigneeMovesToBacklog(t *testing.T) {
	f := newRoutingFixture(t)
	f.caps.SeedPool("default", "A")
	uc := f.admitUseCase()

	first, err := uc.Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{},
	})
	require.NoError(t, err)

	f.rules.Seed(testutil.NewRule(t, 1, "rl_emea", "lead", "emea queue", rule.FamilyAssignment,
		`{"when":"region == 'EMEA'","assign":{"type":"least_loaded_queue","poolId":"emea"}}`))

	_, err = uc.Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{"region": "EMEA"}, Requalify: true,
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeNoEligibleAssignee))

	assert.Equal(t, sla.StatusCancelled, f.timers.Get(first.Timer.ID).Status())
	assert.Equal(t, 0, f.caps.Count("A"))
}

func TestAdmitRecord_TimerKeepsRecordSnapshot(t *testing.T) {
	f := newRoutingFixture(t)
	f.caps.SeedPool("default", "A")

	out, err := f.admitUseCase().Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1",
		Record: map[string]any{"amount": float64(75000), "address": map[string]any{"region": "west"}},
	})
	require.NoError(t, err)

	tm := f.timers.Get(out.Timer.ID)
	require.NotNil(t, tm)
	assert.Equal(t, float64(75000), tm.RecordSnapshot()["amount"])
	assert.Equal(t, "west", tm.RecordSnapshot()["address.region"])
}

func TestAdmitRecord_TimerFailureRollsBackAssignment(t *testing.T) {
	f := newRoutingFixture(t)
	f.caps.SeedPool("default", "A")
	f.timers.CreateErr = errors.New("insert failed")

	_, err := f.admitUseCase().Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.GetAppError(err).Type)
	assert.Equal(t, 0, f.caps.Count("A"))

	for _, ev := range f.events.All() {
		assert.Equal(t, routeevent.KindValidation, ev.Kind)
	}
}

func TestAdmitRecord_CapacityRaceSurfaces(t *testing.T) {
	f := newRoutingFixture(t)
	assigner := &mockAssigner{assignFunc: func(ctx context.Context, req services.AssignRequest) (*services.Decision, error) {
		return nil, capacity.ErrCapacityRace
	}}
	uc := NewAdmitRecordUseCase(&mockValidator{}, assigner, f.events, f.timers, f.tracker, f.tx, f.clock,
		time.Hour, testutil.NewMockLogger())

	_, err := uc.Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{},
	})
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeCapacityRace))
}

func TestAdmitRecord_ValidatorFailure(t *testing.T) {
	f := newRoutingFixture(t)
	validator := &mockValidator{validateFunc: func(context.Context, string, string, string, condition.Snapshot) ([]services.Violation, error) {
		return nil, errors.New("rules unavailable")
	}}
	uc := NewAdmitRecordUseCase(validator, f.engine, f.events, f.timers, f.tracker, f.tx, f.clock,
		time.Hour, testutil.NewMockLogger())

	_, err := uc.Execute(context.Background(), AdmitRecordCommand{
		OrgID: "org1", Object: "lead", RecordID: "R1", Record: map[string]any{},
	})
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.GetAppError(err).Type)
	assert.Empty(t, f.events.All())
}

func TestAdmitRecord_RequiresRecord(t *testing.T) {
	f := newRoutingFixture(t)
	_, err := f.admitUseCase().Execute(context.Background(), AdmitRecordCommand{Object: "lead", RecordID: "R1"})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = f.admitUseCase().Execute(context.Background(), AdmitRecordCommand{RecordID: "R1", Record: map[string]any{}})
	assert.True(t, apperrors.IsValidationError(err))
}
