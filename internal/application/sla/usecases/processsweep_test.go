package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/application/sla/dto"
	"github.com/hatch-crm/hatch/internal/application/sla/services"
	"github.com/hatch-crm/hatch/internal/application/testutil"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
)

func TestProcessSweepUseCase_Execute(t *testing.T) {
	clock := biztime.NewFixedClock(testutil.BaseTime)

	t.Run("defaults to the clock", func(t *testing.T) {
		sweeper := &mockSweeper{res: &services.SweepResult{Processed: 3, Escalated: 1}}
		uc := NewProcessSweepUseCase(sweeper, clock, testutil.NewMockLogger())

		got, err := uc.Execute(context.Background(), ProcessSweepCommand{})
		require.NoError(t, err)
		assert.Equal(t, &dto.SweepResultDTO{Processed: 3, Escalated: 1}, got)
		assert.Equal(t, []time.Time{testutil.BaseTime}, sweeper.calls)
	})

	t.Run("explicit instant", func(t *testing.T) {
		sweeper := &mockSweeper{res: &services.SweepResult{}}
		uc := NewProcessSweepUseCase(sweeper, clock, testutil.NewMockLogger())
		at := testutil.BaseTime.Add(61 * time.Minute)

		_, err := uc.Execute(context.Background(), ProcessSweepCommand{Now: &at})
		require.NoError(t, err)
		assert.True(t, sweeper.calls[0].Equal(at))
	})

	t.Run("read failure", func(t *testing.T) {
		sweeper := &mockSweeper{err: errors.New("db down")}
		uc := NewProcessSweepUseCase(sweeper, clock, testutil.NewMockLogger())

		_, err := uc.Execute(context.Background(), ProcessSweepCommand{})
		assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeInternal))
	})
}
