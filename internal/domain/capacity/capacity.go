// Package capacity tracks how many live records each owner carries and picks
// the least-loaded owner of a pool.
package capacity

import (
	"errors"
	"sort"
	"time"
)

var (
	// ErrCapacityRace is returned when a compare-and-swap increment loses to
	// a concurrent writer or the owner filled up in between.
	ErrCapacityRace = errors.New("capacity changed concurrently")
	ErrInvalidMax   = errors.New("max capacity must be non-negative")
)

// Snapshot is the current load of one owner. Version is zero for an owner
// that has never been persisted.
type Snapshot struct {
	OwnerID     string
	ActiveCount int
	MaxCapacity int
	LastUpdated time.Time
	Version     int
}

func (s Snapshot) HasRoom() bool {
	return s.ActiveCount < s.MaxCapacity
}

// Persisted reports whether the snapshot was read from a stored row.
func (s Snapshot) Persisted() bool {
	return s.Version > 0
}

// Less orders snapshots by active count, then owner ID, then last update.
func Less(a, b Snapshot) bool {
	if a.ActiveCount != b.ActiveCount {
		return a.ActiveCount < b.ActiveCount
	}
	if a.OwnerID != b.OwnerID {
		return a.OwnerID < b.OwnerID
	}
	return a.LastUpdated.Before(b.LastUpdated)
}

// SelectLeastLoaded returns the least-loaded owner with room that is not
// excluded. The result depends only on the snapshot values.
func SelectLeastLoaded(snaps []Snapshot, exclude map[string]bool) (Snapshot, bool) {
	ranked := Rank(snaps)
	for _, s := range ranked {
		if exclude[s.OwnerID] || !s.HasRoom() {
			continue
		}
		return s, true
	}
	return Snapshot{}, false
}

// Rank returns a sorted copy of snaps.
func Rank(snaps []Snapshot) []Snapshot {
	ranked := make([]Snapshot, len(snaps))
	copy(ranked, snaps)
	sort.SliceStable(ranked, func(i, j int) bool { return Less(ranked[i], ranked[j]) })
	return ranked
}
