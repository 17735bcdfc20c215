package capacity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Tracker reads and adjusts owner load, filling in defaults for owners that
// have never been assigned.
type Tracker struct {
	repo       Repository
	defaultMax int
}

func NewTracker(repo Repository, defaultMax int) *Tracker {
	return &Tracker{repo: repo, defaultMax: defaultMax}
}

func (t *Tracker) DefaultMax() int {
	return t.defaultMax
}

// Snapshots returns one snapshot per owner, in the order given.
func (t *Tracker) Snapshots(ctx context.Context, ownerIDs []string) ([]Snapshot, error) {
	stored, err := t.repo.Find(ctx, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("load capacity: %w", err)
	}
	out := make([]Snapshot, 0, len(ownerIDs))
	for _, ownerID := range ownerIDs {
		if s, ok := stored[ownerID]; ok {
			out = append(out, s)
			continue
		}
		out = append(out, Snapshot{OwnerID: ownerID, MaxCapacity: t.defaultMax})
	}
	return out, nil
}

// PoolSnapshots resolves pool members and their load.
func (t *Tracker) PoolSnapshots(ctx context.Context, poolID string) ([]Snapshot, error) {
	members, err := t.repo.PoolMembers(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("load pool %s: %w", poolID, err)
	}
	if len(members) == 0 {
		return nil, nil
	}
	return t.Snapshots(ctx, members)
}

// Claim increments the owner's count guarded by the snapshot version. A full
// snapshot is reported as a race so the caller re-reads.
func (t *Tracker) Claim(ctx context.Context, snap Snapshot, now time.Time) (Snapshot, error) {
	if !snap.HasRoom() {
		return Snapshot{}, ErrCapacityRace
	}
	return t.repo.Increment(ctx, snap, now)
}

// ForceClaim increments without a room check, used for explicit owner
// overrides. It retries once on a version race.
func (t *Tracker) ForceClaim(ctx context.Context, ownerID string, now time.Time) (Snapshot, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		snaps, err := t.Snapshots(ctx, []string{ownerID})
		if err != nil {
			return Snapshot{}, err
		}
		out, err := t.repo.Increment(ctx, snaps[0], now)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrCapacityRace) {
			return Snapshot{}, err
		}
		lastErr = err
	}
	return Snapshot{}, lastErr
}

func (t *Tracker) Release(ctx context.Context, ownerID string, now time.Time) error {
	return t.repo.Decrement(ctx, ownerID, now)
}
