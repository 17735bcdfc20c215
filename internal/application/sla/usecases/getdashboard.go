package usecases

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hatch-crm/hatch/internal/application/sla/dto"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/domain/sla"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// DashboardCache holds recently computed dashboards per org. A miss returns
// nil without error.
type DashboardCache interface {
	Get(ctx context.Context, orgID string) (*dto.DashboardDTO, error)
	Set(ctx context.Context, orgID string, d *dto.DashboardDTO) error
}

// GetDashboardQuery reads the SLA dashboard. Latency is averaged over the
// trailing LatencyWindow, 24h when zero.
type GetDashboardQuery struct {
	OrgID         string
	LatencyWindow time.Duration
}

// GetDashboardUseCase builds the status dashboard from live timers and the
// route event log.
type GetDashboardUseCase struct {
	timers sla.Repository
	events routeevent.Repository
	cache  DashboardCache
	clock  biztime.Clock
	logger logger.Interface
}

// NewGetDashboardUseCase creates a dashboard reader; cache may be nil.
func NewGetDashboardUseCase(
	timers sla.Repository,
	events routeevent.Repository,
	cache DashboardCache,
	clock biztime.Clock,
	logger logger.Interface,
) *GetDashboardUseCase {
	return &GetDashboardUseCase{timers: timers, events: events, cache: cache, clock: clock, logger: logger}
}

func (uc *GetDashboardUseCase) Execute(ctx context.Context, query GetDashboardQuery) (*dto.DashboardDTO, error) {
	uc.logger.Debugw("executing get sla dashboard use case", "org_id", query.OrgID)

	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, query.OrgID)
		if err != nil {
			uc.logger.Warnw("failed to read dashboard cache", "org_id", query.OrgID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	window := query.LatencyWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	now := uc.clock.Now()

	var (
		counts map[sla.Status]int64
		avg    float64
		hasAvg bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = uc.timers.CountLiveByStatus(gctx, query.OrgID)
		return err
	})
	g.Go(func() error {
		var err error
		avg, hasAvg, err = uc.events.AverageLatencyMs(gctx, query.OrgID, routeevent.Window{From: now.Add(-window), To: now})
		return err
	})
	if err := g.Wait(); err != nil {
		uc.logger.Errorw("failed to build sla dashboard", "org_id", query.OrgID, "error", err)
		return nil, errors.NewInternalError("failed to build sla dashboard")
	}

	result := &dto.DashboardDTO{
		Green:    counts[sla.StatusGreen],
		Amber:    counts[sla.StatusAmber],
		Red:      counts[sla.StatusRed],
		Breached: counts[sla.StatusBreached],
	}
	if hasAvg {
		result.AvgTimeToAssignMs = &avg
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, query.OrgID, result); err != nil {
			uc.logger.Warnw("failed to cache dashboard", "org_id", query.OrgID, "error", err)
		}
	}
	return result, nil
}
