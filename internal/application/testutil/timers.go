package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hatch-crm/hatch/internal/domain/sla"
)

// MockTimerRepository is an in-memory sla.Repository with a version guard.
type MockTimerRepository struct {
	mu     sync.Mutex
	timers map[string]*sla.Timer

	CreateErr error
	UpdateErr error
	// BeforeUpdate runs before the version guard, for simulating a
	// concurrent writer.
	BeforeUpdate func(t *sla.Timer)
}

func NewMockTimerRepository() *MockTimerRepository {
	return &MockTimerRepository{timers: make(map[string]*sla.Timer)}
}

// Get returns a copy of the stored timer or nil.
func (m *MockTimerRepository) Get(timerID string) *sla.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[timerID]; ok {
		return t.Clone()
	}
	return nil
}

// Seed stores timers directly.
func (m *MockTimerRepository) Seed(timers ...*sla.Timer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range timers {
		m.timers[t.ID()] = t.Clone()
	}
}

// All returns copies of every stored timer.
func (m *MockTimerRepository) All() []*sla.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*sla.Timer, 0, len(m.timers))
	for _, t := range m.timers {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (m *MockTimerRepository) Create(ctx context.Context, t *sla.Timer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, cur := range m.timers {
		if cur.IsLive() && cur.OrgID() == t.OrgID() && cur.RecordID() == t.RecordID() {
			return sla.ErrTimerConflict
		}
	}
	m.timers[t.ID()] = t.Clone()
	recordUndo(ctx, func() {
		m.mu.Lock()
		delete(m.timers, t.ID())
		m.mu.Unlock()
	})
	return nil
}

func (m *MockTimerRepository) Update(ctx context.Context, t *sla.Timer, expectedVersion int) error {
	if m.BeforeUpdate != nil {
		m.BeforeUpdate(t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	cur, ok := m.timers[t.ID()]
	if !ok {
		return sla.ErrTimerNotFound
	}
	if cur.Version() != expectedVersion {
		return sla.ErrTimerConflict
	}
	m.timers[t.ID()] = t.Clone()
	recordUndo(ctx, func() {
		m.mu.Lock()
		m.timers[t.ID()] = cur
		m.mu.Unlock()
	})
	return nil
}

func (m *MockTimerRepository) GetLiveByRecord(_ context.Context, orgID, recordID string) (*sla.Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.timers {
		if t.IsLive() && t.OrgID() == orgID && t.RecordID() == recordID {
			return t.Clone(), nil
		}
	}
	return nil, sla.ErrTimerNotFound
}

func (m *MockTimerRepository) ListLive(_ context.Context, afterDeadline time.Time, afterID string, limit int) ([]*sla.Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var live []*sla.Timer
	for _, t := range m.timers {
		if t.IsLive() {
			live = append(live, t)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if !live[i].DeadlineAt().Equal(live[j].DeadlineAt()) {
			return live[i].DeadlineAt().Before(live[j].DeadlineAt())
		}
		return live[i].ID() < live[j].ID()
	})
	var out []*sla.Timer
	for _, t := range live {
		if afterID != "" {
			if t.DeadlineAt().Before(afterDeadline) ||
				(t.DeadlineAt().Equal(afterDeadline) && t.ID() <= afterID) {
				continue
			}
		}
		out = append(out, t.Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockTimerRepository) CountLiveByStatus(_ context.Context, orgID string) (map[sla.Status]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[sla.Status]int64)
	for _, t := range m.timers {
		if t.IsLive() && (orgID == "" || t.OrgID() == orgID) {
			out[t.Status()]++
		}
	}
	return out, nil
}

func (m *MockTimerRepository) ClosedStats(_ context.Context, orgID string, from, to time.Time) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var closed, breached int64
	for _, t := range m.timers {
		c := t.ClosedAt()
		if c == nil || (orgID != "" && t.OrgID() != orgID) || c.Before(from) || !c.Before(to) {
			continue
		}
		closed++
		if t.BreachedAt() != nil {
			breached++
		}
	}
	return closed, breached, nil
}

func (m *MockTimerRepository) LiveOwnerCounts(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for _, t := range m.timers {
		if t.IsLive() {
			out[t.OwnerID()]++
		}
	}
	return out, nil
}
