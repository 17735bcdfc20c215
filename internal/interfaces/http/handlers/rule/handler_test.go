package rule

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/application/rule/dto"
	"github.com/hatch-crm/hatch/internal/application/rule/usecases"
	"github.com/hatch-crm/hatch/internal/interfaces/http/handlers/testutil"
	"github.com/hatch-crm/hatch/internal/shared/errors"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockCreateRuleUC struct {
	result *dto.RuleDTO
	err    error
	got    usecases.CreateRuleCommand
}

func (m *mockCreateRuleUC) Execute(_ context.Context, cmd usecases.CreateRuleCommand) (*dto.RuleDTO, error) {
	m.got = cmd
	return m.result, m.err
}

type mockUpdateRuleUC struct {
	result *dto.RuleDTO
	err    error
	got    usecases.UpdateRuleCommand
}

func (m *mockUpdateRuleUC) Execute(_ context.Context, cmd usecases.UpdateRuleCommand) (*dto.RuleDTO, error) {
	m.got = cmd
	return m.result, m.err
}

type mockDeleteRuleUC struct {
	err error
}

func (m *mockDeleteRuleUC) Execute(_ context.Context, cmd usecases.DeleteRuleCommand) (*dto.DeleteResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.DeleteResult{ID: cmd.RuleID, Status: dto.StatusDeleted}, nil
}

type mockGetRuleUC struct {
	result *dto.RuleDTO
	err    error
}

func (m *mockGetRuleUC) Execute(_ context.Context, _ usecases.GetRuleQuery) (*dto.RuleDTO, error) {
	return m.result, m.err
}

type mockListRulesUC struct {
	result *usecases.ListRulesResult
	err    error
	got    usecases.ListRulesQuery
}

func (m *mockListRulesUC) Execute(_ context.Context, query usecases.ListRulesQuery) (*usecases.ListRulesResult, error) {
	m.got = query
	return m.result, m.err
}

type mockListRevisionsUC struct {
	result []*dto.RevisionDTO
	err    error
}

func (m *mockListRevisionsUC) Execute(_ context.Context, _ usecases.ListRuleRevisionsQuery) ([]*dto.RevisionDTO, error) {
	return m.result, m.err
}

type mockImportRulesUC struct {
	result *usecases.ImportRulesResult
	err    error
	got    usecases.ImportRulesCommand
}

func (m *mockImportRulesUC) Execute(_ context.Context, cmd usecases.ImportRulesCommand) (*usecases.ImportRulesResult, error) {
	m.got = cmd
	return m.result, m.err
}

type mocks struct {
	create    *mockCreateRuleUC
	update    *mockUpdateRuleUC
	delete    *mockDeleteRuleUC
	get       *mockGetRuleUC
	list      *mockListRulesUC
	revisions *mockListRevisionsUC
	imports   *mockImportRulesUC
}

func newTestHandler() (*Handler, *mocks) {
	m := &mocks{
		create:    &mockCreateRuleUC{},
		update:    &mockUpdateRuleUC{},
		delete:    &mockDeleteRuleUC{},
		get:       &mockGetRuleUC{},
		list:      &mockListRulesUC{},
		revisions: &mockListRevisionsUC{},
		imports:   &mockImportRulesUC{},
	}
	h := NewHandler(m.create, m.update, m.delete, m.get, m.list, m.revisions, m.imports, testutil.NewMockLogger())
	return h, m
}

func sampleRule() *dto.RuleDTO {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &dto.RuleDTO{
		ID:        "rl_abc123",
		Object:    "lead",
		Name:      "enterprise to AE",
		Family:    "assignment",
		Active:    true,
		Version:   1,
		DSL:       json.RawMessage(`{"when":"tier == enterprise","assign":{"type":"static_owner","ownerId":"U1"}}`),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =====================================================================
// Tests
// =====================================================================

func TestCreateRule_Success(t *testing.T) {
	h, m := newTestHandler()
	m.create.result = sampleRule()

	c, w := testutil.NewTestContext(http.MethodPost, "/api/rules", map[string]any{
		"object": "lead",
		"name":   "enterprise to AE",
		"dsl":    json.RawMessage(`{"when":"tier == enterprise","assign":{"type":"static_owner","ownerId":"U1"}}`),
	})
	testutil.SetOrgContext(c, "acme")

	h.CreateRule(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "acme", m.create.got.OrgID)
	assert.Equal(t, "lead", m.create.got.Object)
	assert.JSONEq(t, `{"when":"tier == enterprise","assign":{"type":"static_owner","ownerId":"U1"}}`, string(m.create.got.DSL))

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)
}

func TestCreateRule_MissingFields(t *testing.T) {
	h, _ := newTestHandler()

	c, w := testutil.NewTestContext(http.MethodPost, "/api/rules", map[string]any{"name": "x"})
	h.CreateRule(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(errors.ErrorTypeValidation), resp.Error.Type)
}

func TestCreateRule_InvalidDSL(t *testing.T) {
	h, m := newTestHandler()
	m.create.err = errors.NewInvalidDSLError("unexpected token", "tier ==")

	c, w := testutil.NewTestContext(http.MethodPost, "/api/rules", map[string]any{
		"object": "lead",
		"name":   "broken",
		"dsl":    json.RawMessage(`{"when":"tier ==","assign":{"type":"static_owner","ownerId":"U1"}}`),
	})
	h.CreateRule(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Equal(t, "invalid_dsl", resp.Error.Type)
	assert.Equal(t, "tier ==", resp.Error.Details)
}

func TestUpdateRule_PassesVersionAndPatch(t *testing.T) {
	h, m := newTestHandler()
	m.update.result = sampleRule()

	c, w := testutil.NewTestContext(http.MethodPatch, "/api/rules/rl_abc123", map[string]any{
		"active":  false,
		"version": 3,
	})
	testutil.SetURLParam(c, "id", "rl_abc123")

	h.UpdateRule(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rl_abc123", m.update.got.RuleID)
	require.NotNil(t, m.update.got.Active)
	assert.False(t, *m.update.got.Active)
	require.NotNil(t, m.update.got.ExpectedVersion)
	assert.Equal(t, 3, *m.update.got.ExpectedVersion)
	assert.Nil(t, m.update.got.Name)
}

func TestUpdateRule_BadID(t *testing.T) {
	h, _ := newTestHandler()

	c, w := testutil.NewTestContext(http.MethodPatch, "/api/rules/42", map[string]any{"active": true})
	testutil.SetURLParam(c, "id", "42")

	h.UpdateRule(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRule_NotFound(t *testing.T) {
	h, m := newTestHandler()
	m.update.err = errors.NewRuleNotFoundError("rl_missing")

	c, w := testutil.NewTestContext(http.MethodPatch, "/api/rules/rl_missing", map[string]any{"active": true})
	testutil.SetURLParam(c, "id", "rl_missing")

	h.UpdateRule(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.Equal(t, "rule_not_found", resp.Error.Type)
}

func TestDeleteRule_ReturnsDeletedStatus(t *testing.T) {
	h, _ := newTestHandler()

	c, w := testutil.NewTestContext(http.MethodDelete, "/api/rules/rl_abc123", nil)
	testutil.SetURLParam(c, "id", "rl_abc123")

	h.DeleteRule(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.JSONEq(t, `{"id":"rl_abc123","status":"deleted"}`, string(resp.Data))
}

func TestGetRule(t *testing.T) {
	h, m := newTestHandler()
	m.get.result = sampleRule()

	c, w := testutil.NewTestContext(http.MethodGet, "/api/rules/rl_abc123", nil)
	testutil.SetURLParam(c, "id", "rl_abc123")

	h.GetRule(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var got dto.RuleDTO
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "rl_abc123", got.ID)
}

func TestListRules_CursorEnvelope(t *testing.T) {
	h, m := newTestHandler()
	m.list.result = &usecases.ListRulesResult{Items: []*dto.RuleDTO{sampleRule()}, NextCursor: "next"}

	c, w := testutil.NewTestContext(http.MethodGet, "/api/rules", nil)
	testutil.SetQueryParams(c, map[string]string{"object": "lead", "activeOnly": "true", "limit": "10"})

	h.ListRules(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lead", m.list.got.Object)
	assert.True(t, m.list.got.ActiveOnly)
	assert.Equal(t, 10, m.list.got.Limit)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var page testutil.CursorPage
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "next", *page.NextCursor)
}

func TestListRules_LastPageHasNullCursor(t *testing.T) {
	h, m := newTestHandler()
	m.list.result = &usecases.ListRulesResult{Items: []*dto.RuleDTO{}}

	c, w := testutil.NewTestContext(http.MethodGet, "/api/rules", nil)
	h.ListRules(c)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.JSONEq(t, `{"items":[],"nextCursor":null}`, string(resp.Data))
}

func TestListRules_BadActiveOnly(t *testing.T) {
	h, _ := newTestHandler()

	c, w := testutil.NewTestContext(http.MethodGet, "/api/rules", nil)
	testutil.SetQueryParams(c, map[string]string{"activeOnly": "maybe"})

	h.ListRules(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRevisions(t *testing.T) {
	h, m := newTestHandler()
	m.revisions.result = []*dto.RevisionDTO{{ID: "rv_1", Version: 1}, {ID: "rv_2", Version: 2}}

	c, w := testutil.NewTestContext(http.MethodGet, "/api/rules/rl_abc123/revisions", nil)
	testutil.SetURLParam(c, "id", "rl_abc123")

	h.ListRevisions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var got []dto.RevisionDTO
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Len(t, got, 2)
}

func TestImportRules_ForwardsRawBody(t *testing.T) {
	h, m := newTestHandler()
	m.imports.result = &usecases.ImportRulesResult{Created: []string{"rl_1"}}

	body := "rules:\n  - object: lead\n    name: a\n"
	c, w := testutil.NewTestContext(http.MethodPost, "/api/rules/import", body)
	testutil.SetQueryParams(c, map[string]string{"skipExisting": "true"})
	testutil.SetOrgContext(c, "acme")

	h.ImportRules(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, string(m.imports.got.Data))
	assert.True(t, m.imports.got.SkipExisting)
	assert.Equal(t, "acme", m.imports.got.OrgID)
}
