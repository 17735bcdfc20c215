package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/hatch-crm/hatch/internal/domain/rule"
)

// MockRuleRepository is an in-memory rule.Repository.
type MockRuleRepository struct {
	mu        sync.Mutex
	rules     map[string]*rule.Rule
	revisions map[string][]*rule.Revision

	CreateErr     error
	UpdateErr     error
	ListActiveErr error
}

func NewMockRuleRepository() *MockRuleRepository {
	return &MockRuleRepository{
		rules:     make(map[string]*rule.Rule),
		revisions: make(map[string][]*rule.Revision),
	}
}

func cloneRule(r *rule.Rule) *rule.Rule {
	c, err := rule.ReconstructRule(r.ID(), r.OrgID(), r.Object(), r.Name(), r.Family(), r.IsActive(),
		r.Version(), r.DSL(), r.CreatedAt(), r.UpdatedAt(), r.DeletedAt())
	if err != nil {
		panic(err)
	}
	return c
}

// Seed stores rules directly, bypassing error injection.
func (m *MockRuleRepository) Seed(rules ...*rule.Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rules {
		m.rules[r.ID()] = cloneRule(r)
	}
}

func (m *MockRuleRepository) Create(ctx context.Context, r *rule.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.rules[r.ID()] = cloneRule(r)
	recordUndo(ctx, func() {
		m.mu.Lock()
		delete(m.rules, r.ID())
		m.mu.Unlock()
	})
	return nil
}

func (m *MockRuleRepository) Update(ctx context.Context, r *rule.Rule, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	cur, ok := m.rules[r.ID()]
	if !ok {
		return rule.ErrRuleNotFound
	}
	if cur.Version() != expectedVersion {
		return rule.ErrVersionConflict
	}
	m.rules[r.ID()] = cloneRule(r)
	recordUndo(ctx, func() {
		m.mu.Lock()
		m.rules[r.ID()] = cur
		m.mu.Unlock()
	})
	return nil
}

func (m *MockRuleRepository) GetByID(_ context.Context, ruleID string) (*rule.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[ruleID]
	if !ok {
		return nil, rule.ErrRuleNotFound
	}
	return cloneRule(r), nil
}

func (m *MockRuleRepository) sorted() []*rule.Rule {
	out := make([]*rule.Rule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().Before(out[j].CreatedAt())
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

func (m *MockRuleRepository) List(_ context.Context, f rule.ListFilter) ([]*rule.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*rule.Rule
	for _, r := range m.sorted() {
		if f.OrgID != "" && r.OrgID() != f.OrgID {
			continue
		}
		if f.Object != "" && r.Object() != f.Object {
			continue
		}
		if f.Family != "" && r.Family() != f.Family {
			continue
		}
		if f.ActiveOnly && (!r.IsActive() || r.IsDeleted()) {
			continue
		}
		if f.AfterID != "" {
			if r.CreatedAt().Before(f.AfterCreatedAt) ||
				(r.CreatedAt().Equal(f.AfterCreatedAt) && r.ID() <= f.AfterID) {
				continue
			}
		}
		out = append(out, cloneRule(r))
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (m *MockRuleRepository) ListActive(_ context.Context, orgID, object string, family rule.Family) ([]*rule.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListActiveErr != nil {
		return nil, m.ListActiveErr
	}
	var out []*rule.Rule
	for _, r := range m.sorted() {
		if r.OrgID() == orgID && r.Object() == object && r.Family() == family && r.IsActive() && !r.IsDeleted() {
			out = append(out, cloneRule(r))
		}
	}
	return out, nil
}

func (m *MockRuleRepository) ExistsByName(_ context.Context, orgID, object, name, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rules {
		if r.ID() != excludeID && !r.IsDeleted() && r.OrgID() == orgID && r.Object() == object && r.Name() == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockRuleRepository) AppendRevision(ctx context.Context, rev *rule.Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revisions[rev.RuleID] = append(m.revisions[rev.RuleID], rev)
	recordUndo(ctx, func() {
		m.mu.Lock()
		revs := m.revisions[rev.RuleID]
		m.revisions[rev.RuleID] = revs[:len(revs)-1]
		m.mu.Unlock()
	})
	return nil
}

func (m *MockRuleRepository) ListRevisions(_ context.Context, ruleID string) ([]*rule.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*rule.Revision, len(m.revisions[ruleID]))
	copy(out, m.revisions[ruleID])
	return out, nil
}
