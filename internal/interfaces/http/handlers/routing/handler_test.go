package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/application/routing/dto"
	"github.com/hatch-crm/hatch/internal/application/routing/services"
	"github.com/hatch-crm/hatch/internal/application/routing/usecases"
	"github.com/hatch-crm/hatch/internal/interfaces/http/handlers/testutil"
	"github.com/hatch-crm/hatch/internal/shared/errors"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockAdmitRecordUC struct {
	result *dto.DecisionDTO
	err    error
	got    usecases.AdmitRecordCommand
}

func (m *mockAdmitRecordUC) Execute(_ context.Context, cmd usecases.AdmitRecordCommand) (*dto.DecisionDTO, error) {
	m.got = cmd
	return m.result, m.err
}

type mockValidateTransitionUC struct {
	result *dto.ValidationDTO
	err    error
	got    usecases.ValidateTransitionCommand
}

func (m *mockValidateTransitionUC) Execute(_ context.Context, cmd usecases.ValidateTransitionCommand) (*dto.ValidationDTO, error) {
	m.got = cmd
	return m.result, m.err
}

type mockResolveRecordUC struct {
	result *dto.TimerDTO
	err    error
	got    usecases.ResolveRecordCommand
}

func (m *mockResolveRecordUC) Execute(_ context.Context, cmd usecases.ResolveRecordCommand) (*dto.TimerDTO, error) {
	m.got = cmd
	return m.result, m.err
}

type mockCapacityViewUC struct {
	result []dto.CapacityDTO
	got    usecases.GetCapacityViewQuery
}

func (m *mockCapacityViewUC) Execute(_ context.Context, query usecases.GetCapacityViewQuery) ([]dto.CapacityDTO, error) {
	m.got = query
	return m.result, nil
}

type mockSetOwnerCapacityUC struct {
	got usecases.SetOwnerCapacityCommand
}

func (m *mockSetOwnerCapacityUC) Execute(_ context.Context, cmd usecases.SetOwnerCapacityCommand) (*dto.CapacityDTO, error) {
	m.got = cmd
	return &dto.CapacityDTO{OwnerID: cmd.OwnerID, MaxCapacity: cmd.MaxCapacity}, nil
}

type mockSetPoolMembersUC struct {
	got usecases.SetPoolMembersCommand
}

func (m *mockSetPoolMembersUC) Execute(_ context.Context, cmd usecases.SetPoolMembersCommand) (*usecases.PoolDTO, error) {
	m.got = cmd
	return &usecases.PoolDTO{PoolID: cmd.PoolID}, nil
}

type mockRebuildCapacityUC struct {
	calls int
}

func (m *mockRebuildCapacityUC) Execute(_ context.Context) ([]dto.CapacityDTO, error) {
	m.calls++
	return []dto.CapacityDTO{{OwnerID: "U1", ActiveCount: 2, MaxCapacity: 5}}, nil
}

type mockListRouteEventsUC struct {
	result *usecases.ListRouteEventsResult
	calls  int
	got    usecases.ListRouteEventsQuery
}

func (m *mockListRouteEventsUC) Execute(_ context.Context, query usecases.ListRouteEventsQuery) (*usecases.ListRouteEventsResult, error) {
	m.calls++
	m.got = query
	return m.result, nil
}

func strp(s string) *string { return &s }

// =====================================================================
// RecordHandler
// =====================================================================

func newRecordHandler() (*RecordHandler, *mockAdmitRecordUC, *mockValidateTransitionUC, *mockResolveRecordUC) {
	admit := &mockAdmitRecordUC{}
	validate := &mockValidateTransitionUC{}
	resolve := &mockResolveRecordUC{}
	return NewRecordHandler(admit, validate, resolve, testutil.NewMockLogger()), admit, validate, resolve
}

func TestAdmitRecord_Assigned(t *testing.T) {
	h, admit, _, _ := newRecordHandler()
	admit.result = &dto.DecisionDTO{
		RecordID: "L-1",
		Status:   dto.DecisionStatusAssigned,
		OwnerID:  "U1",
		RuleID:   strp("rl_a"),
		Reason:   "rule matched",
		EventID:  "re_1",
	}

	received := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c, w := testutil.NewTestContext(http.MethodPost, "/api/records/lead/L-1/admit", map[string]any{
		"record":     map[string]any{"tier": "enterprise"},
		"receivedAt": received,
	})
	testutil.SetURLParam(c, "object", "lead")
	testutil.SetURLParam(c, "recordId", "L-1")
	testutil.SetOrgContext(c, "acme")

	h.AdmitRecord(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", admit.got.OrgID)
	assert.Equal(t, "lead", admit.got.Object)
	assert.Equal(t, "L-1", admit.got.RecordID)
	assert.Equal(t, "enterprise", admit.got.Record["tier"])
	require.NotNil(t, admit.got.ReceivedAt)
	assert.True(t, received.Equal(*admit.got.ReceivedAt))

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var got dto.DecisionDTO
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "U1", got.OwnerID)
}

func TestAdmitRecord_RequiresRecord(t *testing.T) {
	h, _, _, _ := newRecordHandler()

	c, w := testutil.NewTestContext(http.MethodPost, "/api/records/lead/L-1/admit", map[string]any{"transition": "create"})
	testutil.SetURLParam(c, "object", "lead")
	testutil.SetURLParam(c, "recordId", "L-1")

	h.AdmitRecord(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmitRecord_ValidationFailedCarriesViolations(t *testing.T) {
	h, admit, _, _ := newRecordHandler()
	admit.err = errors.NewValidationFailedError("record failed validation", []services.Violation{
		{RuleID: "rl_v", RuleName: "need phone", Field: "phone"},
	})

	c, w := testutil.NewTestContext(http.MethodPost, "/api/records/lead/L-1/admit", map[string]any{
		"record": map[string]any{"tier": "enterprise"},
	})
	testutil.SetURLParam(c, "object", "lead")
	testutil.SetURLParam(c, "recordId", "L-1")

	h.AdmitRecord(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Equal(t, "validation_failed", resp.Error.Type)
	assert.Contains(t, string(resp.Error.Payload), "phone")
}

func TestAdmitRecord_UnassignedIsConflictWithDecision(t *testing.T) {
	h, admit, _, _ := newRecordHandler()
	admit.err = errors.NewNoEligibleAssigneeError("no eligible assignee", "pool p1 is full").
		WithPayload(&dto.DecisionDTO{RecordID: "L-1", Status: dto.DecisionStatusUnassigned, PoolID: "p1"})

	c, w := testutil.NewTestContext(http.MethodPost, "/api/records/lead/L-1/admit", map[string]any{
		"record": map[string]any{},
	})
	testutil.SetURLParam(c, "object", "lead")
	testutil.SetURLParam(c, "recordId", "L-1")

	h.AdmitRecord(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Equal(t, "no_eligible_assignee", resp.Error.Type)
	var decision dto.DecisionDTO
	require.NoError(t, json.Unmarshal(resp.Error.Payload, &decision))
	assert.Equal(t, dto.DecisionStatusUnassigned, decision.Status)
	assert.Equal(t, "p1", decision.PoolID)
}

func TestValidateTransition(t *testing.T) {
	h, _, validate, _ := newRecordHandler()
	validate.result = &dto.ValidationDTO{Allowed: true, Violations: []services.Violation{}}

	c, w := testutil.NewTestContext(http.MethodPost, "/api/records/opportunity/O-9/validate", map[string]any{
		"transition": "closed_won",
		"record":     map[string]any{"amount": 100},
	})
	testutil.SetURLParam(c, "object", "opportunity")
	testutil.SetURLParam(c, "recordId", "O-9")

	h.ValidateTransition(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "closed_won", validate.got.Transition)
	assert.Equal(t, "O-9", validate.got.RecordID)
}

func TestResolveRecord_EmptyBodyDefaults(t *testing.T) {
	h, _, _, resolve := newRecordHandler()
	resolve.result = &dto.TimerDTO{ID: "st_1", RecordID: "L-1", Status: "RESOLVED"}

	c, w := testutil.NewTestContext(http.MethodPost, "/api/records/L-1/resolve", nil)
	testutil.SetURLParam(c, "recordId", "L-1")

	h.ResolveRecord(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "L-1", resolve.got.RecordID)
	assert.Empty(t, resolve.got.Outcome)
}

func TestResolveRecord_RejectsUnknownOutcome(t *testing.T) {
	h, _, _, _ := newRecordHandler()

	c, w := testutil.NewTestContext(http.MethodPost, "/api/records/L-1/resolve", map[string]any{"outcome": "WON"})
	testutil.SetURLParam(c, "recordId", "L-1")

	h.ResolveRecord(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =====================================================================
// CapacityHandler
// =====================================================================

func TestCapacityHandler(t *testing.T) {
	view := &mockCapacityViewUC{result: []dto.CapacityDTO{{OwnerID: "U1", ActiveCount: 1, MaxCapacity: 5}}}
	setMax := &mockSetOwnerCapacityUC{}
	setPool := &mockSetPoolMembersUC{}
	rebuild := &mockRebuildCapacityUC{}
	h := NewCapacityHandler(view, setMax, setPool, rebuild, testutil.NewMockLogger())

	t.Run("view filters by pool", func(t *testing.T) {
		c, w := testutil.NewTestContext(http.MethodGet, "/api/capacity", nil)
		testutil.SetQueryParams(c, map[string]string{"poolId": "p1"})

		h.GetCapacityView(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "p1", view.got.PoolID)
	})

	t.Run("set max capacity accepts zero", func(t *testing.T) {
		c, w := testutil.NewTestContext(http.MethodPut, "/api/capacity/owners/U1", map[string]any{"maxCapacity": 0})
		testutil.SetURLParam(c, "ownerId", "U1")

		h.SetOwnerCapacity(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "U1", setMax.got.OwnerID)
		assert.Equal(t, 0, setMax.got.MaxCapacity)
	})

	t.Run("set max capacity requires a value", func(t *testing.T) {
		c, w := testutil.NewTestContext(http.MethodPut, "/api/capacity/owners/U1", map[string]any{})
		testutil.SetURLParam(c, "ownerId", "U1")

		h.SetOwnerCapacity(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("set max capacity rejects negatives", func(t *testing.T) {
		c, w := testutil.NewTestContext(http.MethodPut, "/api/capacity/owners/U1", map[string]any{"maxCapacity": -1})
		testutil.SetURLParam(c, "ownerId", "U1")

		h.SetOwnerCapacity(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("set pool members", func(t *testing.T) {
		c, w := testutil.NewTestContext(http.MethodPut, "/api/pools/p1", map[string]any{"members": []string{"U2", "U1"}})
		testutil.SetURLParam(c, "poolId", "p1")

		h.SetPoolMembers(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"U2", "U1"}, setPool.got.OwnerIDs)
	})

	t.Run("rebuild", func(t *testing.T) {
		c, w := testutil.NewTestContext(http.MethodPost, "/api/capacity/rebuild", nil)

		h.RebuildCapacity(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, rebuild.calls)
	})
}

// =====================================================================
// RouteEventHandler
// =====================================================================

func TestListRouteEvents_ForwardsFilters(t *testing.T) {
	uc := &mockListRouteEventsUC{result: &usecases.ListRouteEventsResult{
		Items:      []*dto.RouteEventDTO{{ID: "re_1", Decision: "unassigned"}},
		NextCursor: "c2",
	}}
	h := NewRouteEventHandler(uc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/route-events", nil)
	testutil.SetQueryParams(c, map[string]string{
		"decision": "unassigned",
		"kind":     "assignment",
		"object":   "lead",
		"cursor":   "c1",
	})
	testutil.SetOrgContext(c, "acme")

	h.ListRouteEvents(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", uc.got.OrgID)
	assert.Equal(t, "unassigned", uc.got.Decision)
	assert.Equal(t, "assignment", uc.got.Kind)
	assert.Equal(t, "c1", uc.got.Cursor)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var page testutil.CursorPage
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "c2", *page.NextCursor)
}

func TestListRouteEvents_RejectsUnknownKind(t *testing.T) {
	uc := &mockListRouteEventsUC{}
	h := NewRouteEventHandler(uc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/route-events", nil)
	testutil.SetQueryParams(c, map[string]string{"kind": "escalation"})

	h.ListRouteEvents(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, uc.calls)
}
