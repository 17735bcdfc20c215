package usecases

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/application/rule/dto"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
)

func seedRule(t *testing.T, f *ruleFixture, name, dsl string) *dto.RuleDTO {
	t.Helper()
	got, err := f.create().Execute(context.Background(), CreateRuleCommand{
		OrgID: "org1", Object: "opportunities", Name: name, DSL: json.RawMessage(dsl),
	})
	require.NoError(t, err)
	f.tick()
	return got
}

func TestUpdateRuleUseCase_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces dsl and bumps version", func(t *testing.T) {
		f := newRuleFixture(t)
		created := seedRule(t, f, "big deals", staticDSL)

		got, err := f.update().Execute(ctx, UpdateRuleCommand{
			OrgID:  "org1",
			RuleID: created.ID,
			DSL:    json.RawMessage(`{"when":"amount >= 100000","assign":{"type":"static_owner","ownerId":"U2"}}`),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, got.Version)
		assert.Equal(t, "amount >= 100000", got.Condition)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))

		revs, _ := f.repo.ListRevisions(ctx, created.ID)
		require.Len(t, revs, 2)
		assert.Equal(t, 2, revs[1].Version)
	})

	t.Run("deactivate keeps dsl", func(t *testing.T) {
		f := newRuleFixture(t)
		created := seedRule(t, f, "big deals", staticDSL)

		got, err := f.update().Execute(ctx, UpdateRuleCommand{OrgID: "org1", RuleID: created.ID, Active: ptr(false)})
		require.NoError(t, err)
		assert.False(t, got.Active)
		assert.JSONEq(t, string(created.DSL), string(got.DSL))
	})

	t.Run("invalid dsl leaves the rule unchanged", func(t *testing.T) {
		f := newRuleFixture(t)
		created := seedRule(t, f, "big deals", staticDSL)

		_, err := f.update().Execute(ctx, UpdateRuleCommand{
			OrgID: "org1", RuleID: created.ID, DSL: json.RawMessage(`{"when":"amount >=","assign":{"type":"static_owner","ownerId":"U1"}}`),
		})
		assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeInvalidDSL))

		stored, err := f.repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Version())
	})

	t.Run("stale expected version", func(t *testing.T) {
		f := newRuleFixture(t)
		created := seedRule(t, f, "big deals", staticDSL)

		_, err := f.update().Execute(ctx, UpdateRuleCommand{
			OrgID: "org1", RuleID: created.ID, Name: ptr("renamed"), ExpectedVersion: ptr(3),
		})
		assert.True(t, apperrors.IsConflictError(err))
	})

	t.Run("rename onto an existing name", func(t *testing.T) {
		f := newRuleFixture(t)
		seedRule(t, f, "big deals", staticDSL)
		other := seedRule(t, f, "emea", poolDSL)

		_, err := f.update().Execute(ctx, UpdateRuleCommand{OrgID: "org1", RuleID: other.ID, Name: ptr("big deals")})
		assert.True(t, apperrors.IsConflictError(err))
	})

	t.Run("empty patch", func(t *testing.T) {
		f := newRuleFixture(t)
		created := seedRule(t, f, "big deals", staticDSL)

		_, err := f.update().Execute(ctx, UpdateRuleCommand{OrgID: "org1", RuleID: created.ID})
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("unknown or foreign rule", func(t *testing.T) {
		f := newRuleFixture(t)
		created := seedRule(t, f, "big deals", staticDSL)

		_, err := f.update().Execute(ctx, UpdateRuleCommand{OrgID: "org1", RuleID: "rl_missing", Name: ptr("x")})
		assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeRuleNotFound))

		_, err = f.update().Execute(ctx, UpdateRuleCommand{OrgID: "org2", RuleID: created.ID, Name: ptr("x")})
		assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeRuleNotFound))
	})

	t.Run("deleted rule", func(t *testing.T) {
		f := newRuleFixture(t)
		created := seedRule(t, f, "big deals", staticDSL)
		_, err := f.delete().Execute(ctx, DeleteRuleCommand{OrgID: "org1", RuleID: created.ID})
		require.NoError(t, err)

		_, err = f.update().Execute(ctx, UpdateRuleCommand{OrgID: "org1", RuleID: created.ID, Active: ptr(true)})
		assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeRuleNotFound))
	})
}
