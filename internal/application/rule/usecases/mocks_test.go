package usecases

import (
	"testing"
	"time"

	"github.com/hatch-crm/hatch/internal/application/testutil"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
)

const (
	staticDSL     = `{"when":"amount >= 50000","assign":{"type":"static_owner","ownerId":"U1"}}`
	poolDSL       = `{"when":"region == 'EMEA'","assign":{"type":"least_loaded_queue","poolId":"emea"}}`
	validationDSL = `{"if":"status in ['Resolved','Closed']","then_required":["description"]}`
)

type ruleFixture struct {
	repo  *testutil.MockRuleRepository
	tx    *testutil.MockTxRunner
	clock *biztime.FixedClock
}

func newRuleFixture(t *testing.T) *ruleFixture {
	t.Helper()
	return &ruleFixture{
		repo:  testutil.NewMockRuleRepository(),
		tx:    testutil.NewMockTxRunner(),
		clock: biztime.NewFixedClock(testutil.BaseTime),
	}
}

func (f *ruleFixture) create() *CreateRuleUseCase {
	return NewCreateRuleUseCase(f.repo, f.tx, f.clock, testutil.NewMockLogger())
}

func (f *ruleFixture) update() *UpdateRuleUseCase {
	return NewUpdateRuleUseCase(f.repo, f.tx, f.clock, testutil.NewMockLogger())
}

func (f *ruleFixture) delete() *DeleteRuleUseCase {
	return NewDeleteRuleUseCase(f.repo, f.tx, f.clock, testutil.NewMockLogger())
}

func (f *ruleFixture) tick() {
	f.clock.Advance(time.Second)
}

func ptr[T any](v T) *T { return &v }
