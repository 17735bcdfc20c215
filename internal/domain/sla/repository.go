package sla

import (
	"context"
	"time"
)

// Repository persists SLA timers. A record has at most one live timer.
type Repository interface {
	Create(ctx context.Context, t *Timer) error
	// Update writes t when the stored version equals expectedVersion and
	// returns ErrTimerConflict otherwise.
	Update(ctx context.Context, t *Timer, expectedVersion int) error
	GetLiveByRecord(ctx context.Context, orgID, recordID string) (*Timer, error)
	// ListLive returns live timers ordered by (deadlineAt, id) after the given position.
	ListLive(ctx context.Context, afterDeadline time.Time, afterID string, limit int) ([]*Timer, error)
	CountLiveByStatus(ctx context.Context, orgID string) (map[Status]int64, error)
	// ClosedStats counts timers closed inside [from, to) and how many of them breached.
	ClosedStats(ctx context.Context, orgID string, from, to time.Time) (closed, breached int64, err error)
	// LiveOwnerCounts counts live timers per owner.
	LiveOwnerCounts(ctx context.Context) (map[string]int, error)
}
