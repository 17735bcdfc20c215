package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/hatch-crm/hatch/internal/application/routing/services"
	"github.com/hatch-crm/hatch/internal/application/testutil"
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/condition"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
)

type mockValidator struct {
	validateFunc func(ctx context.Context, orgID, object, transition string, snap condition.Snapshot) ([]services.Violation, error)
}

func (m *mockValidator) Validate(ctx context.Context, orgID, object, transition string, snap condition.Snapshot) ([]services.Violation, error) {
	if m.validateFunc != nil {
		return m.validateFunc(ctx, orgID, object, transition, snap)
	}
	return []services.Violation{}, nil
}

type mockAssigner struct {
	assignFunc func(ctx context.Context, req services.AssignRequest) (*services.Decision, error)
}

func (m *mockAssigner) Assign(ctx context.Context, req services.AssignRequest) (*services.Decision, error) {
	return m.assignFunc(ctx, req)
}

// routingFixture wires the real engine and gate over in-memory repositories.
type routingFixture struct {
	rules   *testutil.MockRuleRepository
	caps    *testutil.MockCapacityRepository
	events  *testutil.MockRouteEventRepository
	timers  *testutil.MockTimerRepository
	tx      *testutil.MockTxRunner
	clock   *biztime.FixedClock
	tracker *capacity.Tracker
	engine  *services.Engine
	gate    *services.Gate
}

func newRoutingFixture(t *testing.T) *routingFixture {
	t.Helper()
	f := &routingFixture{
		rules:  testutil.NewMockRuleRepository(),
		caps:   testutil.NewMockCapacityRepository(),
		events: testutil.NewMockRouteEventRepository(),
		timers: testutil.NewMockTimerRepository(),
		tx:     testutil.NewMockTxRunner(),
		clock:  biztime.NewFixedClock(testutil.BaseTime.Add(time.Hour)),
	}
	f.tracker = capacity.NewTracker(f.caps, 5)
	f.engine = services.NewEngine(f.rules, f.tracker, f.events, services.NewMemoryPoolLocker(), f.tx,
		&testutil.MockPublisher{}, f.clock,
		services.EngineConfig{DefaultPoolID: "default", StaticOwnerConsumesCapacity: true},
		testutil.NewMockLogger())
	f.gate = services.NewGate(f.rules)
	return f
}

func (f *routingFixture) admitUseCase() *AdmitRecordUseCase {
	return NewAdmitRecordUseCase(f.gate, f.engine, f.events, f.timers, f.tracker, f.tx, f.clock,
		time.Hour, testutil.NewMockLogger())
}
