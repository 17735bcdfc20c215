// Package sla models per-record SLA timers and their status machine.
package sla

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTimerNotFound = errors.New("sla timer not found")
	// ErrTimerConflict is returned when a versioned update loses to another writer.
	ErrTimerConflict = errors.New("sla timer was modified concurrently")
	ErrTimerClosed   = errors.New("sla timer is already closed")
)

// Thresholds configures status boundaries. AmberRatio is the fraction of the
// total window after which a timer turns AMBER; Grace is how long past the
// deadline a timer stays RED before it is BREACHED.
type Thresholds struct {
	AmberRatio float64
	Grace      time.Duration
}

// Timer tracks one record's deadline.
type Timer struct {
	id          string
	orgID       string
	recordID    string
	object      string
	ownerID     string
	poolID      string
	startedAt   time.Time
	deadlineAt  time.Time
	status      Status
	escalatedAt *time.Time
	breachedAt  *time.Time
	episode     int
	closedAt    *time.Time
	version     int
	updatedAt   time.Time

	// snapshot is the flattened record as admitted.
	snapshot map[string]any
}

// NewTimer starts a GREEN timer for an assigned record.
func NewTimer(timerID, orgID, recordID, object, ownerID, poolID string, startedAt time.Time, window time.Duration) (*Timer, error) {
	if timerID == "" || recordID == "" {
		return nil, fmt.Errorf("timer ID and record ID are required")
	}
	if ownerID == "" {
		return nil, fmt.Errorf("owner ID is required")
	}
	if window <= 0 {
		return nil, fmt.Errorf("sla window must be positive")
	}
	startedAt = startedAt.UTC()
	return &Timer{
		id:         timerID,
		orgID:      orgID,
		recordID:   recordID,
		object:     object,
		ownerID:    ownerID,
		poolID:     poolID,
		startedAt:  startedAt,
		deadlineAt: startedAt.Add(window),
		status:     StatusGreen,
		version:    1,
		updatedAt:  startedAt,
	}, nil
}

// ReconstructTimer rebuilds a persisted timer.
func ReconstructTimer(
	timerID, orgID, recordID, object, ownerID, poolID string,
	startedAt, deadlineAt time.Time,
	status Status,
	escalatedAt, breachedAt *time.Time,
	episode int,
	closedAt *time.Time,
	version int,
	updatedAt time.Time,
) (*Timer, error) {
	if timerID == "" {
		return nil, fmt.Errorf("timer ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	return &Timer{
		id:          timerID,
		orgID:       orgID,
		recordID:    recordID,
		object:      object,
		ownerID:     ownerID,
		poolID:      poolID,
		startedAt:   startedAt,
		deadlineAt:  deadlineAt,
		status:      status,
		escalatedAt: escalatedAt,
		breachedAt:  breachedAt,
		episode:     episode,
		closedAt:    closedAt,
		version:     version,
		updatedAt:   updatedAt,
	}, nil
}

func (t *Timer) ID() string              { return t.id }
func (t *Timer) OrgID() string           { return t.orgID }
func (t *Timer) RecordID() string        { return t.recordID }
func (t *Timer) Object() string          { return t.object }
func (t *Timer) OwnerID() string         { return t.ownerID }
func (t *Timer) PoolID() string          { return t.poolID }
func (t *Timer) StartedAt() time.Time    { return t.startedAt }
func (t *Timer) DeadlineAt() time.Time   { return t.deadlineAt }
func (t *Timer) Status() Status          { return t.status }
func (t *Timer) EscalatedAt() *time.Time { return t.escalatedAt }
func (t *Timer) BreachedAt() *time.Time  { return t.breachedAt }
func (t *Timer) Episode() int            { return t.episode }
func (t *Timer) ClosedAt() *time.Time    { return t.closedAt }
func (t *Timer) Version() int            { return t.version }
func (t *Timer) UpdatedAt() time.Time    { return t.updatedAt }
func (t *Timer) IsLive() bool            { return !t.status.IsTerminal() }

// RecordSnapshot returns the record fields the timer was started with. Callers
// must not modify it.
func (t *Timer) RecordSnapshot() map[string]any { return t.snapshot }

// AttachSnapshot stores the record fields the owner was chosen from.
func (t *Timer) AttachSnapshot(snap map[string]any) {
	t.snapshot = snap
}

// Clone returns an independent copy, used to keep the pre-claim state.
func (t *Timer) Clone() *Timer {
	c := *t
	return &c
}

// ComputeStatus derives the running status purely from the clock and thresholds.
func ComputeStatus(now, startedAt, deadlineAt time.Time, th Thresholds) Status {
	switch {
	case now.After(deadlineAt.Add(th.Grace)):
		return StatusBreached
	case !now.Before(deadlineAt):
		return StatusRed
	}
	total := deadlineAt.Sub(startedAt)
	amberAt := startedAt.Add(time.Duration(float64(total) * th.AmberRatio))
	if !now.Before(amberAt) {
		return StatusAmber
	}
	return StatusGreen
}

// EpisodeAt numbers breach episodes from 1. Episode k starts at
// deadline+grace+(k-1)*window where window is the timer's full length.
// Zero means the timer is not breached at now.
func (t *Timer) EpisodeAt(now time.Time, th Thresholds) int {
	breachAt := t.deadlineAt.Add(th.Grace)
	if !now.After(breachAt) {
		return 0
	}
	window := t.deadlineAt.Sub(t.startedAt)
	if window <= 0 {
		return 1
	}
	return int(now.Sub(breachAt)/window) + 1
}

func (t *Timer) episodeStart(k int, th Thresholds) time.Time {
	window := t.deadlineAt.Sub(t.startedAt)
	return t.deadlineAt.Add(th.Grace).Add(time.Duration(k-1) * window)
}

// Target is the status the timer should hold at now. Persisted status never
// moves backwards.
func (t *Timer) Target(now time.Time, th Thresholds) Status {
	if !t.IsLive() {
		return t.status
	}
	return Max(t.status, ComputeStatus(now, t.startedAt, t.deadlineAt, th))
}

// NeedsEscalation reports whether now falls in a breach episode that has not
// been escalated yet.
func (t *Timer) NeedsEscalation(now time.Time, th Thresholds) bool {
	if !t.IsLive() {
		return false
	}
	k := t.EpisodeAt(now, th)
	if k == 0 {
		return false
	}
	if t.escalatedAt == nil {
		return true
	}
	return t.escalatedAt.Before(t.episodeStart(k, th)) && t.episode < k
}

// Advance moves the status forward. It never lowers severity.
func (t *Timer) Advance(status Status, now time.Time) bool {
	if !t.IsLive() || status.Severity() <= t.status.Severity() {
		return false
	}
	t.status = status
	if status == StatusBreached && t.breachedAt == nil {
		at := now.UTC()
		t.breachedAt = &at
	}
	t.touch(now)
	return true
}

// MarkEscalated claims the current breach episode.
func (t *Timer) MarkEscalated(now time.Time, th Thresholds) error {
	k := t.EpisodeAt(now, th)
	if k == 0 {
		return fmt.Errorf("timer %s is not breached", t.id)
	}
	if !t.IsLive() {
		return ErrTimerClosed
	}
	at := now.UTC()
	t.status = StatusBreached
	if t.breachedAt == nil {
		t.breachedAt = &at
	}
	t.escalatedAt = &at
	t.episode = k
	t.touch(now)
	return nil
}

// Reassign moves the timer to a new owner after an escalation.
func (t *Timer) Reassign(ownerID, poolID string, now time.Time) {
	t.ownerID = ownerID
	t.poolID = poolID
	t.touch(now)
}

// Close ends the timer as RESOLVED or CANCELLED.
func (t *Timer) Close(status Status, now time.Time) error {
	if !status.IsTerminal() {
		return fmt.Errorf("close requires RESOLVED or CANCELLED, got %s", status)
	}
	if !t.IsLive() {
		return ErrTimerClosed
	}
	at := now.UTC()
	t.status = status
	t.closedAt = &at
	t.touch(now)
	return nil
}

// RestoreFrom rolls a claimed timer back to a previous state while keeping
// the version moving forward.
func (t *Timer) RestoreFrom(prev *Timer, now time.Time) {
	version := t.version
	*t = *prev
	t.version = version
	t.touch(now)
}

func (t *Timer) touch(now time.Time) {
	t.version++
	t.updatedAt = now.UTC()
}
