package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/hatch-crm/hatch/internal/application/sla/dto"
	"github.com/hatch-crm/hatch/internal/application/sla/services"
)

type mockSweeper struct {
	calls []time.Time
	res   *services.SweepResult
	err   error
}

func (m *mockSweeper) Sweep(_ context.Context, now time.Time) (*services.SweepResult, error) {
	m.calls = append(m.calls, now)
	return m.res, m.err
}

type mockDashboardCache struct {
	mu      sync.Mutex
	entries map[string]*dto.DashboardDTO
	getErr  error
	sets    int
}

func newMockDashboardCache() *mockDashboardCache {
	return &mockDashboardCache{entries: make(map[string]*dto.DashboardDTO)}
}

func (m *mockDashboardCache) Get(_ context.Context, orgID string) (*dto.DashboardDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.entries[orgID], nil
}

func (m *mockDashboardCache) Set(_ context.Context, orgID string, d *dto.DashboardDTO) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[orgID] = d
	m.sets++
	return nil
}
