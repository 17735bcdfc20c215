package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/application/rule/dto"
	"github.com/hatch-crm/hatch/internal/domain/rule"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
)

func TestDeleteRuleUseCase_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("soft deletes and drops out of evaluation", func(t *testing.T) {
		f := newRuleFixture(t)
		created := seedRule(t, f, "big deals", staticDSL)

		got, err := f.delete().Execute(ctx, DeleteRuleCommand{OrgID: "org1", RuleID: created.ID})
		require.NoError(t, err)
		assert.Equal(t, &dto.DeleteResult{ID: created.ID, Status: dto.StatusDeleted}, got)

		stored, err := f.repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsDeleted())
		assert.False(t, stored.IsActive())

		active, err := f.repo.ListActive(ctx, "org1", "opportunities", rule.FamilyAssignment)
		require.NoError(t, err)
		assert.Empty(t, active)

		revs, _ := f.repo.ListRevisions(ctx, created.ID)
		require.Len(t, revs, 2)
		assert.True(t, revs[1].Deleted)
	})

	t.Run("second delete is a no-op", func(t *testing.T) {
		f := newRuleFixture(t)
		created := seedRule(t, f, "big deals", staticDSL)

		_, err := f.delete().Execute(ctx, DeleteRuleCommand{OrgID: "org1", RuleID: created.ID})
		require.NoError(t, err)
		got, err := f.delete().Execute(ctx, DeleteRuleCommand{OrgID: "org1", RuleID: created.ID})
		require.NoError(t, err)
		assert.Equal(t, dto.StatusDeleted, got.Status)

		revs, _ := f.repo.ListRevisions(ctx, created.ID)
		assert.Len(t, revs, 2)
	})

	t.Run("unknown rule", func(t *testing.T) {
		f := newRuleFixture(t)
		_, err := f.delete().Execute(ctx, DeleteRuleCommand{OrgID: "org1", RuleID: "rl_missing"})
		assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeRuleNotFound))
	})

	t.Run("name can be reused after delete", func(t *testing.T) {
		f := newRuleFixture(t)
		created := seedRule(t, f, "big deals", staticDSL)
		_, err := f.delete().Execute(ctx, DeleteRuleCommand{OrgID: "org1", RuleID: created.ID})
		require.NoError(t, err)

		again := seedRule(t, f, "big deals", staticDSL)
		assert.NotEqual(t, created.ID, again.ID)
	})
}
