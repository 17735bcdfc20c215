package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/hatch-crm/hatch/internal/domain/routeevent"
)

// MockRouteEventRepository is an in-memory append-only event log.
type MockRouteEventRepository struct {
	mu     sync.Mutex
	events []*routeevent.Event

	AppendErr error
}

func NewMockRouteEventRepository() *MockRouteEventRepository {
	return &MockRouteEventRepository{}
}

// All returns a copy of every stored event in append order.
func (m *MockRouteEventRepository) All() []*routeevent.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*routeevent.Event(nil), m.events...)
}

func (m *MockRouteEventRepository) Append(ctx context.Context, events ...*routeevent.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	start := len(m.events)
	m.events = append(m.events, events...)
	recordUndo(ctx, func() {
		m.mu.Lock()
		m.events = m.events[:start]
		m.mu.Unlock()
	})
	return nil
}

func (m *MockRouteEventRepository) List(_ context.Context, f routeevent.Filter) ([]*routeevent.Event, error) {
	m.mu.Lock()
	sorted := append([]*routeevent.Event(nil), m.events...)
	m.mu.Unlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].OccurredAt.Equal(sorted[j].OccurredAt) {
			return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	var out []*routeevent.Event
	for _, e := range sorted {
		if f.OrgID != "" && e.OrgID != f.OrgID ||
			f.Object != "" && e.Object != f.Object ||
			f.RecordID != "" && e.RecordID != f.RecordID ||
			f.Decision != "" && e.Decision != f.Decision ||
			f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.RuleID != "" && (e.RuleID == nil || *e.RuleID != f.RuleID) {
			continue
		}
		if f.AfterID != "" {
			if e.OccurredAt.Before(f.AfterOccurredAt) ||
				(e.OccurredAt.Equal(f.AfterOccurredAt) && e.ID <= f.AfterID) {
				continue
			}
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func inWindow(e *routeevent.Event, orgID string, w routeevent.Window) bool {
	if orgID != "" && e.OrgID != orgID {
		return false
	}
	return !e.OccurredAt.Before(w.From) && e.OccurredAt.Before(w.To)
}

func (m *MockRouteEventRepository) RuleHits(_ context.Context, orgID string, w routeevent.Window) ([]routeevent.RuleHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type key struct {
		rule string
		kind routeevent.Kind
	}
	counts := make(map[key]int64)
	for _, e := range m.events {
		if e.RuleID == nil || !inWindow(e, orgID, w) {
			continue
		}
		counts[key{*e.RuleID, e.Kind}]++
	}
	out := make([]routeevent.RuleHit, 0, len(counts))
	for k, n := range counts {
		out = append(out, routeevent.RuleHit{RuleID: k.rule, Kind: k.kind, Hits: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hits != out[j].Hits {
			return out[i].Hits > out[j].Hits
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out, nil
}

func (m *MockRouteEventRepository) AverageLatencyMs(_ context.Context, orgID string, w routeevent.Window) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum, n int64
	for _, e := range m.events {
		if e.LatencyMs == nil || !inWindow(e, orgID, w) {
			continue
		}
		sum += *e.LatencyMs
		n++
	}
	if n == 0 {
		return 0, false, nil
	}
	return float64(sum) / float64(n), true, nil
}

func (m *MockRouteEventRepository) CountByDecision(_ context.Context, orgID string, w routeevent.Window, decision string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.events {
		if e.Decision == decision && inWindow(e, orgID, w) {
			n++
		}
	}
	return n, nil
}

// MockPublisher records published events.
type MockPublisher struct {
	mu        sync.Mutex
	Published []*routeevent.Event
	Err       error
}

func (m *MockPublisher) PublishRouteEvents(_ context.Context, events ...*routeevent.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, events...)
	return nil
}

// Count returns the number of events published so far.
func (m *MockPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Published)
}
