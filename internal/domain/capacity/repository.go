package capacity

import (
	"context"
	"time"
)

// Repository stores owner capacity rows and pool membership.
type Repository interface {
	// Find returns stored rows for the given owners. Owners without a row are absent.
	Find(ctx context.Context, ownerIDs []string) (map[string]Snapshot, error)
	ListAll(ctx context.Context) ([]Snapshot, error)

	// Increment adds one to the owner's count when the stored version still
	// equals snap.Version. A zero version inserts the row with snap.MaxCapacity.
	// It returns ErrCapacityRace when the guard fails. Room is checked by the
	// caller against the same snapshot.
	Increment(ctx context.Context, snap Snapshot, now time.Time) (Snapshot, error)
	// Decrement subtracts one, never going below zero.
	Decrement(ctx context.Context, ownerID string, now time.Time) error
	SetMaxCapacity(ctx context.Context, ownerID string, maxCapacity int, now time.Time) (Snapshot, error)
	// ReplaceCounts overwrites active counts with recomputed values; owners
	// missing from counts are set to zero.
	ReplaceCounts(ctx context.Context, counts map[string]int, defaultMax int, now time.Time) error

	PoolMembers(ctx context.Context, poolID string) ([]string, error)
	SetPoolMembers(ctx context.Context, poolID string, ownerIDs []string) error
	// PoolsOf returns the pools an owner belongs to.
	PoolsOf(ctx context.Context, ownerID string) ([]string, error)
}
