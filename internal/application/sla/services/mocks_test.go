package services

import (
	"context"
	"sync"
	"testing"
	"time"

	routing "github.com/hatch-crm/hatch/internal/application/routing/services"
	"github.com/hatch-crm/hatch/internal/application/testutil"
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/sla"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
)

type mockNotifier struct {
	mu   sync.Mutex
	sent []Escalation
	err  error
}

func (m *mockNotifier) NotifyEscalation(_ context.Context, e Escalation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return m.err
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type assignerFunc func(ctx context.Context, req routing.AssignRequest) (*routing.Decision, error)

func (f assignerFunc) Assign(ctx context.Context, req routing.AssignRequest) (*routing.Decision, error) {
	return f(ctx, req)
}

var (
	t0         = testutil.BaseTime
	thresholds = sla.Thresholds{AmberRatio: 0.75}
)

type sweepHarness struct {
	rules    *testutil.MockRuleRepository
	timers   *testutil.MockTimerRepository
	caps     *testutil.MockCapacityRepository
	events   *testutil.MockRouteEventRepository
	tracker  *capacity.Tracker
	engine   *routing.Engine
	notifier *mockNotifier
	clock    *biztime.FixedClock
}

func newSweepHarness(t *testing.T) *sweepHarness {
	t.Helper()
	h := &sweepHarness{
		rules:    testutil.NewMockRuleRepository(),
		timers:   testutil.NewMockTimerRepository(),
		caps:     testutil.NewMockCapacityRepository(),
		events:   testutil.NewMockRouteEventRepository(),
		notifier: &mockNotifier{},
		clock:    biztime.NewFixedClock(t0),
	}
	h.tracker = capacity.NewTracker(h.caps, 5)
	h.engine = routing.NewEngine(
		h.rules,
		h.tracker,
		h.events,
		routing.NewMemoryPoolLocker(),
		testutil.NewMockTxRunner(),
		&testutil.MockPublisher{},
		h.clock,
		routing.EngineConfig{DefaultPoolID: "default", StaticOwnerConsumesCapacity: true},
		testutil.NewMockLogger(),
	)
	return h
}

func (h *sweepHarness) service(cfg SweepConfig) *SweepService {
	return h.serviceWith(h.engine, cfg)
}

func (h *sweepHarness) serviceWith(a Assigner, cfg SweepConfig) *SweepService {
	if cfg.Thresholds == (sla.Thresholds{}) {
		cfg.Thresholds = thresholds
	}
	return NewSweepService(h.timers, a, h.notifier, h.clock, cfg, testutil.NewMockLogger())
}

// startTimer seeds a live one-hour timer owned by ownerID and counts it
// against the owner's capacity.
func (h *sweepHarness) startTimer(t *testing.T, timerID, recordID, ownerID string) {
	t.Helper()
	tm, err := sla.NewTimer(timerID, "org1", recordID, "lead", ownerID, "default", t0, time.Hour)
	if err != nil {
		t.Fatalf("new timer: %v", err)
	}
	h.timers.Seed(tm)
	h.caps.Bump(ownerID, 1)
}

// pool seeds idle owners with room for twenty records each into the default pool.
func (h *sweepHarness) pool(owners ...string) {
	for _, o := range owners {
		h.caps.SeedOwner(o, 0, 20)
	}
	h.caps.SeedPool("default", owners...)
}
