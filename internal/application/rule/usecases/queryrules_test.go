package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/application/testutil"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
)

func TestGetRuleUseCase_Execute(t *testing.T) {
	f := newRuleFixture(t)
	created := seedRule(t, f, "big deals", staticDSL)
	uc := NewGetRuleUseCase(f.repo, testutil.NewMockLogger())

	got, err := uc.Execute(context.Background(), GetRuleQuery{OrgID: "org1", RuleID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "big deals", got.Name)

	_, err = uc.Execute(context.Background(), GetRuleQuery{OrgID: "org2", RuleID: created.ID})
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestListRulesUseCase_Execute(t *testing.T) {
	ctx := context.Background()
	f := newRuleFixture(t)
	first := seedRule(t, f, "r1", staticDSL)
	second := seedRule(t, f, "r2", poolDSL)
	third := seedRule(t, f, "r3", staticDSL)
	_, err := f.create().Execute(ctx, CreateRuleCommand{OrgID: "org1", Object: "cases", Name: "v1", DSL: []byte(validationDSL)})
	require.NoError(t, err)
	_, err = f.delete().Execute(ctx, DeleteRuleCommand{OrgID: "org1", RuleID: second.ID})
	require.NoError(t, err)

	uc := NewListRulesUseCase(f.repo, testutil.NewMockLogger())

	t.Run("pages in creation order", func(t *testing.T) {
		page, err := uc.Execute(ctx, ListRulesQuery{OrgID: "org1", Object: "opportunities", Limit: 2})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, first.ID, page.Items[0].ID)
		assert.Equal(t, second.ID, page.Items[1].ID)
		require.NotEmpty(t, page.NextCursor)

		next, err := uc.Execute(ctx, ListRulesQuery{OrgID: "org1", Object: "opportunities", Limit: 2, Cursor: page.NextCursor})
		require.NoError(t, err)
		require.Len(t, next.Items, 1)
		assert.Equal(t, third.ID, next.Items[0].ID)
		assert.Empty(t, next.NextCursor)
	})

	t.Run("active only hides deleted", func(t *testing.T) {
		page, err := uc.Execute(ctx, ListRulesQuery{OrgID: "org1", Object: "opportunities", ActiveOnly: true})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, []string{first.ID, third.ID}, []string{page.Items[0].ID, page.Items[1].ID})
	})

	t.Run("family filter", func(t *testing.T) {
		page, err := uc.Execute(ctx, ListRulesQuery{OrgID: "org1", Family: "validation"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "v1", page.Items[0].Name)
	})

	t.Run("bad input", func(t *testing.T) {
		_, err := uc.Execute(ctx, ListRulesQuery{OrgID: "org1", Family: "routing"})
		assert.True(t, apperrors.IsValidationError(err))

		_, err = uc.Execute(ctx, ListRulesQuery{OrgID: "org1", Cursor: "%%%"})
		assert.True(t, apperrors.IsValidationError(err))
	})
}

func TestListRuleRevisionsUseCase_Execute(t *testing.T) {
	ctx := context.Background()
	f := newRuleFixture(t)
	created := seedRule(t, f, "big deals", staticDSL)
	_, err := f.update().Execute(ctx, UpdateRuleCommand{OrgID: "org1", RuleID: created.ID, Name: ptr("huge deals")})
	require.NoError(t, err)

	uc := NewListRuleRevisionsUseCase(f.repo, testutil.NewMockLogger())
	revs, err := uc.Execute(ctx, ListRuleRevisionsQuery{OrgID: "org1", RuleID: created.ID})
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "big deals", revs[0].Name)
	assert.Equal(t, "huge deals", revs[1].Name)
	assert.Equal(t, 2, revs[1].Version)

	_, err = uc.Execute(ctx, ListRuleRevisionsQuery{OrgID: "org1", RuleID: "rl_missing"})
	assert.True(t, apperrors.IsNotFoundError(err))
}
