package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/shared/logger"
)

func TestSchedulerManager_SweepStartsImmediately(t *testing.T) {
	m, err := NewSchedulerManager(logger.Discard())
	require.NoError(t, err)

	var runs atomic.Int32
	job := BatchJobFunc(func(ctx context.Context) (int, error) {
		runs.Add(1)
		return 3, nil
	})
	require.NoError(t, m.RegisterSLASweepJob(job, time.Hour))

	m.Start()
	assert.True(t, m.IsStarted())
	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
	assert.NoError(t, m.Stop())
}

func TestSchedulerManager_RegistersNamedJobs(t *testing.T) {
	m, err := NewSchedulerManager(logger.Discard())
	require.NoError(t, err)

	noop := BatchJobFunc(func(context.Context) (int, error) { return 0, nil })
	require.NoError(t, m.RegisterSLASweepJob(noop, time.Minute))
	require.NoError(t, m.RegisterCapacityRebuildJob(noop, "0 3 * * *"))

	names := make([]string, 0, 2)
	for _, j := range m.Jobs() {
		names = append(names, j.Name())
	}
	assert.ElementsMatch(t, []string{"sla-sweep", "capacity-rebuild"}, names)
}

func TestSchedulerManager_RejectsBadCron(t *testing.T) {
	m, err := NewSchedulerManager(logger.Discard())
	require.NoError(t, err)

	noop := BatchJobFunc(func(context.Context) (int, error) { return 0, nil })
	assert.Error(t, m.RegisterCapacityRebuildJob(noop, "not a cron"))
}

func TestSweepTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, sweepTimeout(5*time.Second))
	assert.Equal(t, 2*time.Minute, sweepTimeout(2*time.Minute))
}
