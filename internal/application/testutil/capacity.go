package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hatch-crm/hatch/internal/domain/capacity"
)

// MockCapacityRepository is an in-memory capacity.Repository with a version
// guard on Increment.
type MockCapacityRepository struct {
	mu      sync.Mutex
	rows    map[string]capacity.Snapshot
	members map[string][]string

	IncrementErr error
	// BeforeIncrement, when set, runs before the version guard is checked.
	// Tests use it to simulate a concurrent writer.
	BeforeIncrement func(snap capacity.Snapshot)
	Increments      int
}

func NewMockCapacityRepository() *MockCapacityRepository {
	return &MockCapacityRepository{
		rows:    make(map[string]capacity.Snapshot),
		members: make(map[string][]string),
	}
}

// SeedOwner stores a row with the given load.
func (m *MockCapacityRepository) SeedOwner(ownerID string, active, maxCapacity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[ownerID] = capacity.Snapshot{
		OwnerID:     ownerID,
		ActiveCount: active,
		MaxCapacity: maxCapacity,
		Version:     1,
	}
}

// SeedPool sets pool membership directly.
func (m *MockCapacityRepository) SeedPool(poolID string, ownerIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[poolID] = append([]string(nil), ownerIDs...)
}

// Count returns the owner's active count, zero when no row exists.
func (m *MockCapacityRepository) Count(ownerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[ownerID].ActiveCount
}

// Bump changes a row outside of any transaction, as another writer would.
func (m *MockCapacityRepository) Bump(ownerID string, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[ownerID]
	row.OwnerID = ownerID
	row.ActiveCount += delta
	row.Version++
	m.rows[ownerID] = row
}

func (m *MockCapacityRepository) Find(_ context.Context, ownerIDs []string) (map[string]capacity.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]capacity.Snapshot, len(ownerIDs))
	for _, o := range ownerIDs {
		if row, ok := m.rows[o]; ok {
			out[o] = row
		}
	}
	return out, nil
}

func (m *MockCapacityRepository) ListAll(_ context.Context) ([]capacity.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]capacity.Snapshot, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID < out[j].OwnerID })
	return out, nil
}

func (m *MockCapacityRepository) Increment(ctx context.Context, snap capacity.Snapshot, now time.Time) (capacity.Snapshot, error) {
	if m.BeforeIncrement != nil {
		m.BeforeIncrement(snap)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IncrementErr != nil {
		return capacity.Snapshot{}, m.IncrementErr
	}
	prev, existed := m.rows[snap.OwnerID]
	if prev.Version != snap.Version {
		return capacity.Snapshot{}, capacity.ErrCapacityRace
	}
	next := prev
	if !existed {
		next = capacity.Snapshot{OwnerID: snap.OwnerID, MaxCapacity: snap.MaxCapacity}
	}
	next.ActiveCount++
	next.Version++
	next.LastUpdated = now
	m.rows[snap.OwnerID] = next
	m.Increments++

	recordUndo(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if existed {
			m.rows[snap.OwnerID] = prev
		} else {
			delete(m.rows, snap.OwnerID)
		}
	})
	return next, nil
}

func (m *MockCapacityRepository) Decrement(ctx context.Context, ownerID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.rows[ownerID]
	if !ok {
		return nil
	}
	next := prev
	if next.ActiveCount > 0 {
		next.ActiveCount--
	}
	next.Version++
	next.LastUpdated = now
	m.rows[ownerID] = next
	recordUndo(ctx, func() {
		m.mu.Lock()
		m.rows[ownerID] = prev
		m.mu.Unlock()
	})
	return nil
}

func (m *MockCapacityRepository) SetMaxCapacity(_ context.Context, ownerID string, maxCapacity int, now time.Time) (capacity.Snapshot, error) {
	if maxCapacity < 0 {
		return capacity.Snapshot{}, capacity.ErrInvalidMax
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[ownerID]
	row.OwnerID = ownerID
	row.MaxCapacity = maxCapacity
	row.Version++
	row.LastUpdated = now
	m.rows[ownerID] = row
	return row, nil
}

func (m *MockCapacityRepository) ReplaceCounts(_ context.Context, counts map[string]int, defaultMax int, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ownerID, row := range m.rows {
		row.ActiveCount = counts[ownerID]
		row.Version++
		row.LastUpdated = now
		m.rows[ownerID] = row
	}
	for ownerID, n := range counts {
		if _, ok := m.rows[ownerID]; ok {
			continue
		}
		m.rows[ownerID] = capacity.Snapshot{
			OwnerID:     ownerID,
			ActiveCount: n,
			MaxCapacity: defaultMax,
			Version:     1,
			LastUpdated: now,
		}
	}
	return nil
}

func (m *MockCapacityRepository) PoolMembers(_ context.Context, poolID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.members[poolID]...), nil
}

func (m *MockCapacityRepository) SetPoolMembers(_ context.Context, poolID string, ownerIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(ownerIDs) == 0 {
		delete(m.members, poolID)
		return nil
	}
	m.members[poolID] = append([]string(nil), ownerIDs...)
	return nil
}

func (m *MockCapacityRepository) PoolsOf(_ context.Context, ownerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for poolID, members := range m.members {
		for _, o := range members {
			if o == ownerID {
				out = append(out, poolID)
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
