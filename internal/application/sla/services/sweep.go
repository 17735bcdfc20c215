package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	routing "github.com/hatch-crm/hatch/internal/application/routing/services"
	"github.com/hatch-crm/hatch/internal/domain/condition"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/domain/sla"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// SweepConfig tunes one sweep pass.
type SweepConfig struct {
	Thresholds sla.Thresholds
	Mode       EscalationMode
	// BatchSize bounds the timers examined per pass.
	BatchSize int
	// Workers is the number of partitions processed in parallel.
	Workers int
}

// SweepResult summarises one pass. Processed counts timers examined.
type SweepResult struct {
	Processed int
	Advanced  int
	Escalated int
	Failed    int
}

// SweepService recomputes live timer statuses and escalates fresh breaches.
//
// Each pass reads one page of live timers ordered by deadline, continuing
// from where the previous pass stopped and wrapping to the start after a
// short page. The page is split by a hash of the record ID so a timer is
// handled by exactly one worker; across processes the versioned update on
// the timer is the claim.
type SweepService struct {
	timers   sla.Repository
	assigner Assigner
	notifier Notifier
	clock    biztime.Clock
	cfg      SweepConfig
	logger   logger.Interface

	mu       sync.Mutex
	cursorAt time.Time
	cursorID string
}

func NewSweepService(
	timers sla.Repository,
	assigner Assigner,
	notifier Notifier,
	clock biztime.Clock,
	cfg SweepConfig,
	log logger.Interface,
) *SweepService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Mode == "" {
		cfg.Mode = EscalateBoth
	}
	return &SweepService{
		timers:   timers,
		assigner: assigner,
		notifier: notifier,
		clock:    clock,
		cfg:      cfg,
		logger:   log.Named("sla_sweep"),
	}
}

// Execute runs one pass at the current time. It satisfies the scheduler's
// batch job contract.
func (s *SweepService) Execute(ctx context.Context) (int, error) {
	res, err := s.Sweep(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	return res.Processed, nil
}

// Sweep processes one page of live timers at now. A failure on one timer is
// logged and leaves it for the next pass; only a failed page read or a
// cancelled context aborts the pass.
func (s *SweepService) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	page, err := s.nextPage(ctx)
	if err != nil {
		return nil, err
	}
	res := &SweepResult{Processed: len(page)}
	if len(page) == 0 {
		return res, nil
	}

	var advanced, escalated, failed atomic.Int64
	parts := partition(page, s.cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		g.Go(func() error {
			for _, t := range part {
				if err := gctx.Err(); err != nil {
					return err
				}
				out, err := s.processTimer(gctx, t, now)
				switch {
				case err != nil:
					failed.Add(1)
					s.logger.Warnw("sla timer left for next sweep",
						"timer_id", t.ID(), "record_id", t.RecordID(), "error", err)
				case out == outcomeEscalated:
					escalated.Add(1)
				case out == outcomeAdvanced:
					advanced.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Advanced = int(advanced.Load())
	res.Escalated = int(escalated.Load())
	res.Failed = int(failed.Load())
	if res.Escalated > 0 || res.Failed > 0 {
		s.logger.Infow("sla sweep pass finished",
			"processed", res.Processed, "advanced", res.Advanced,
			"escalated", res.Escalated, "failed", res.Failed)
	}
	return res, nil
}

func (s *SweepService) nextPage(ctx context.Context) ([]*sla.Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, err := s.timers.ListLive(ctx, s.cursorAt, s.cursorID, s.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list live timers: %w", err)
	}
	if len(page) < s.cfg.BatchSize {
		s.cursorAt, s.cursorID = time.Time{}, ""
	} else {
		last := page[len(page)-1]
		s.cursorAt, s.cursorID = last.DeadlineAt(), last.ID()
	}
	return page, nil
}

// partition spreads timers over n buckets by record ID.
func partition(timers []*sla.Timer, n int) [][]*sla.Timer {
	parts := make([][]*sla.Timer, n)
	for _, t := range timers {
		h := fnv.New32a()
		_, _ = h.Write([]byte(t.RecordID()))
		i := int(h.Sum32() % uint32(n))
		parts[i] = append(parts[i], t)
	}
	return parts
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeAdvanced
	outcomeEscalated
)

func (s *SweepService) processTimer(ctx context.Context, t *sla.Timer, now time.Time) (outcome, error) {
	th := s.cfg.Thresholds
	if t.NeedsEscalation(now, th) {
		return s.escalate(ctx, t, now)
	}

	target := t.Target(now, th)
	prev := t.Version()
	if !t.Advance(target, now) {
		return outcomeUnchanged, nil
	}
	if err := s.timers.Update(ctx, t, prev); err != nil {
		if errors.Is(err, sla.ErrTimerConflict) {
			s.logger.Debugw("sla timer changed by another writer", "timer_id", t.ID())
			return outcomeUnchanged, nil
		}
		return outcomeUnchanged, fmt.Errorf("advance timer: %w", err)
	}
	return outcomeAdvanced, nil
}

// escalate claims the breach episode, reassigns, then notifies. A failed
// reassignment restores the pre-claim state so the next pass retries; a
// record nobody can take keeps its owner until the next episode.
func (s *SweepService) escalate(ctx context.Context, t *sla.Timer, now time.Time) (outcome, error) {
	before := t.Clone()
	if err := t.MarkEscalated(now, s.cfg.Thresholds); err != nil {
		return outcomeUnchanged, err
	}
	if err := s.timers.Update(ctx, t, before.Version()); err != nil {
		if errors.Is(err, sla.ErrTimerConflict) {
			s.logger.Debugw("breach already claimed", "timer_id", t.ID())
			return outcomeUnchanged, nil
		}
		return outcomeUnchanged, fmt.Errorf("claim breach: %w", err)
	}
	claimed := t.Clone()

	esc := Escalation{
		OrgID:           t.OrgID(),
		TimerID:         t.ID(),
		RecordID:        t.RecordID(),
		Object:          t.Object(),
		PreviousOwnerID: before.OwnerID(),
		PoolID:          t.PoolID(),
		DeadlineAt:      t.DeadlineAt(),
		BreachedAt:      *t.BreachedAt(),
		Episode:         t.Episode(),
	}

	if s.cfg.Mode.reassigns() {
		d, err := s.reassign(ctx, t, now)
		var unassigned *routing.UnassignedError
		switch {
		case errors.As(err, &unassigned):
			// The episode stays claimed with the current owner. The backlog
			// event is written once and the next episode tries again.
			s.logger.Warnw("breached record has no eligible assignee",
				"timer_id", t.ID(), "record_id", t.RecordID(), "pool_id", unassigned.PoolID, "episode", esc.Episode)
		case err != nil:
			s.revert(ctx, claimed, before, now)
			return outcomeUnchanged, fmt.Errorf("reassign: %w", err)
		default:
			esc.NewOwnerID = d.OwnerID
			esc.PoolID = d.PoolID
			s.logger.Infow("breached record reassigned",
				"timer_id", t.ID(), "record_id", t.RecordID(),
				"previous_owner_id", esc.PreviousOwnerID, "owner_id", d.OwnerID, "episode", esc.Episode)
		}
	}

	if s.cfg.Mode.notifies() && s.notifier != nil {
		if err := s.notifier.NotifyEscalation(ctx, esc); err != nil {
			s.logger.Warnw("escalation notice failed", "timer_id", t.ID(), "record_id", t.RecordID(), "error", err)
		}
	}
	return outcomeEscalated, nil
}

func (s *SweepService) reassign(ctx context.Context, t *sla.Timer, now time.Time) (*routing.Decision, error) {
	previous := t.OwnerID()
	return s.assigner.Assign(ctx, routing.AssignRequest{
		OrgID:     t.OrgID(),
		Object:    t.Object(),
		RecordID:  t.RecordID(),
		Snapshot:  escalationSnapshot(t),
		Kind:      routeevent.KindReassignment,
		Exclude:   []string{previous},
		Releasing: previous,
		Then: func(txCtx context.Context, d *routing.Decision) error {
			next := t.Clone()
			next.Reassign(d.OwnerID, d.PoolID, now)
			return s.timers.Update(txCtx, next, t.Version())
		},
	})
}

// revert rolls a claimed timer back to its state before the claim.
func (s *SweepService) revert(ctx context.Context, claimed, before *sla.Timer, now time.Time) {
	restored := claimed.Clone()
	restored.RestoreFrom(before, now)
	if err := s.timers.Update(ctx, restored, claimed.Version()); err != nil {
		s.logger.Errorw("failed to release breach claim", "timer_id", claimed.ID(), "error", err)
	}
}

// escalationSnapshot is what assignment rules see for a breached record: the
// fields it was admitted with plus the breach context.
func escalationSnapshot(t *sla.Timer) condition.Snapshot {
	stored := t.RecordSnapshot()
	snap := make(condition.Snapshot, len(stored)+7)
	for k, v := range stored {
		snap[k] = v
	}
	snap["record_id"] = t.RecordID()
	snap["object"] = t.Object()
	snap["previous_owner_id"] = t.OwnerID()
	snap["pool_id"] = t.PoolID()
	snap["sla_status"] = string(t.Status())
	snap["escalation"] = true
	snap["episode"] = t.Episode()
	return snap
}
