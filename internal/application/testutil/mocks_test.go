package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/domain/rule"
	"github.com/hatch-crm/hatch/internal/domain/sla"
)

func TestMockTxRunner_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	tx := NewMockTxRunner()
	caps := NewMockCapacityRepository()
	events := NewMockRouteEventRepository()
	caps.SeedOwner("A", 1, 5)

	boom := errors.New("boom")
	err := tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		snaps, _ := caps.Find(txCtx, []string{"A", "B"})
		if _, err := caps.Increment(txCtx, snaps["A"], BaseTime); err != nil {
			return err
		}
		if _, err := caps.Increment(txCtx, capacity.Snapshot{OwnerID: "B", MaxCapacity: 5}, BaseTime); err != nil {
			return err
		}
		require.NoError(t, events.Append(txCtx, &routeevent.Event{ID: "re1"}))
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, caps.Count("A"))
	assert.Equal(t, 0, caps.Count("B"))
	found, _ := caps.Find(ctx, []string{"B"})
	assert.Empty(t, found)
	assert.Empty(t, events.All())
	assert.Equal(t, 1, tx.Rollbacks)
}

func TestMockTxRunner_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	tx := NewMockTxRunner()
	events := NewMockRouteEventRepository()

	err := tx.RunInTransaction(ctx, func(outer context.Context) error {
		inner := tx.RunInTransaction(outer, func(innerCtx context.Context) error {
			return events.Append(innerCtx, &routeevent.Event{ID: "re1"})
		})
		require.NoError(t, inner)
		return errors.New("outer fails")
	})

	require.Error(t, err)
	assert.Empty(t, events.All())
	assert.Equal(t, 0, tx.Commits)
}

func TestMockCapacityRepository_VersionGuard(t *testing.T) {
	ctx := context.Background()
	caps := NewMockCapacityRepository()
	caps.SeedOwner("A", 0, 2)

	snaps, _ := caps.Find(ctx, []string{"A"})
	stale := snaps["A"]
	_, err := caps.Increment(ctx, stale, BaseTime)
	require.NoError(t, err)

	_, err = caps.Increment(ctx, stale, BaseTime)
	assert.ErrorIs(t, err, capacity.ErrCapacityRace)
	assert.Equal(t, 1, caps.Count("A"))

	require.NoError(t, caps.Decrement(ctx, "A", BaseTime))
	require.NoError(t, caps.Decrement(ctx, "A", BaseTime))
	assert.Equal(t, 0, caps.Count("A"))
}

func TestMockRuleRepository_ListActiveOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRuleRepository()
	second := NewRule(t, 2, "rl_b", "lead", "second", rule.FamilyAssignment,
		`{"when":"amount > 1","assign":{"type":"static_owner","ownerId":"U2"}}`)
	first := NewRule(t, 1, "rl_z", "lead", "first", rule.FamilyAssignment,
		`{"when":"amount > 1","assign":{"type":"static_owner","ownerId":"U1"}}`)
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	got, err := repo.ListActive(ctx, "org1", "lead", rule.FamilyAssignment)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rl_z", got[0].ID())
	assert.Equal(t, "rl_b", got[1].ID())

	prev := first.Version()
	first.SoftDelete(BaseTime.Add(time.Hour))
	require.NoError(t, repo.Update(ctx, first, prev))
	assert.ErrorIs(t, repo.Update(ctx, first, prev), rule.ErrVersionConflict)

	got, err = repo.ListActive(ctx, "org1", "lead", rule.FamilyAssignment)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rl_b", got[0].ID())
}

func TestMockTimerRepository_OneLivePerRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewMockTimerRepository()
	t1, err := sla.NewTimer("st_1", "org1", "R1", "lead", "U1", "", BaseTime, time.Hour)
	require.NoError(t, err)
	t2, err := sla.NewTimer("st_2", "org1", "R1", "lead", "U2", "", BaseTime, time.Hour)
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, t1))
	assert.ErrorIs(t, repo.Create(ctx, t2), sla.ErrTimerConflict)

	prev := t1.Version()
	require.NoError(t, t1.Close(sla.StatusResolved, BaseTime.Add(time.Minute)))
	require.NoError(t, repo.Update(ctx, t1, prev))
	require.NoError(t, repo.Create(ctx, t2))

	live, err := repo.GetLiveByRecord(ctx, "org1", "R1")
	require.NoError(t, err)
	assert.Equal(t, "st_2", live.ID())
}
