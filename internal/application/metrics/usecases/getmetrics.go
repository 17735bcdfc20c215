package usecases

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hatch-crm/hatch/internal/application/metrics/dto"
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/domain/sla"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

const defaultMetricsWindow = 7 * 24 * time.Hour

// GetMetricsQuery selects the window [From, To). Zero To means now; zero
// From means seven days before To.
type GetMetricsQuery struct {
	OrgID string
	From  time.Time
	To    time.Time
}

// GetMetricsUseCase aggregates breach rate, assignment latency, rule hits and
// owner load.
type GetMetricsUseCase struct {
	events   routeevent.Repository
	timers   sla.Repository
	capacity capacity.Repository
	clock    biztime.Clock
	logger   logger.Interface
}

func NewGetMetricsUseCase(
	events routeevent.Repository,
	timers sla.Repository,
	capacityRepo capacity.Repository,
	clock biztime.Clock,
	logger logger.Interface,
) *GetMetricsUseCase {
	return &GetMetricsUseCase{
		events:   events,
		timers:   timers,
		capacity: capacityRepo,
		clock:    clock,
		logger:   logger,
	}
}

func (uc *GetMetricsUseCase) Execute(ctx context.Context, query GetMetricsQuery) (*dto.MetricsDTO, error) {
	to := query.To
	if to.IsZero() {
		to = uc.clock.Now()
	}
	from := query.From
	if from.IsZero() {
		from = to.Add(-defaultMetricsWindow)
	}
	if !from.Before(to) {
		return nil, errors.NewValidationError("from must be before to")
	}
	uc.logger.Infow("executing get metrics use case", "org_id", query.OrgID, "from", from, "to", to)

	w := routeevent.Window{From: from.UTC(), To: to.UTC()}
	result := &dto.MetricsDTO{From: w.From, To: w.To}

	var (
		hits   []routeevent.RuleHit
		loads  []capacity.Snapshot
		avg    float64
		hasAvg bool
	)

	g, gctx := errgroup.WithContext(ctx)

	// Breach rate: breached / closed
	g.Go(func() error {
		closed, breached, err := uc.timers.ClosedStats(gctx, query.OrgID, w.From, w.To)
		if err != nil {
			return err
		}
		result.ClosedTimers, result.BreachedTimers = closed, breached
		return nil
	})

	g.Go(func() error {
		var err error
		avg, hasAvg, err = uc.events.AverageLatencyMs(gctx, query.OrgID, w)
		return err
	})

	g.Go(func() error {
		n, err := uc.events.CountByDecision(gctx, query.OrgID, w, routeevent.DecisionUnassigned)
		if err != nil {
			return err
		}
		result.Unassigned = n
		return nil
	})

	g.Go(func() error {
		var err error
		hits, err = uc.events.RuleHits(gctx, query.OrgID, w)
		return err
	})

	// Owner load mirrors the capacity tracker
	g.Go(func() error {
		var err error
		loads, err = uc.capacity.ListAll(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		uc.logger.Errorw("failed to aggregate metrics", "org_id", query.OrgID, "error", err)
		return nil, errors.NewInternalError("failed to aggregate metrics")
	}

	if result.ClosedTimers > 0 {
		rate := float64(result.BreachedTimers) / float64(result.ClosedTimers)
		result.BreachRate = &rate
	}
	if hasAvg {
		result.AvgTimeToFirstAssignmentMs = &avg
	}

	result.RuleHits = make([]dto.RuleHitDTO, 0, len(hits))
	for _, h := range hits {
		result.RuleHits = append(result.RuleHits, dto.RuleHitDTO{RuleID: h.RuleID, Kind: string(h.Kind), Hits: h.Hits})
	}
	result.OwnerLoad = make([]dto.OwnerLoadDTO, 0, len(loads))
	for _, s := range loads {
		result.OwnerLoad = append(result.OwnerLoad, dto.OwnerLoadDTO{
			OwnerID:     s.OwnerID,
			ActiveCount: s.ActiveCount,
			MaxCapacity: s.MaxCapacity,
		})
	}
	return result, nil
}
