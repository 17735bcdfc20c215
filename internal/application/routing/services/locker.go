package services

import (
	"context"
	"sync"
)

// MemoryPoolLocker is a per-key mutex map for single-instance deployments.
// Locks are channel semaphores so waiting honours context cancellation.
type MemoryPoolLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewMemoryPoolLocker() *MemoryPoolLocker {
	return &MemoryPoolLocker{slots: make(map[string]chan struct{})}
}

func (m *MemoryPoolLocker) Lock(ctx context.Context, poolID string) (func(), error) {
	slot := m.slot(poolID)
	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *MemoryPoolLocker) slot(poolID string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[poolID]; ok {
		return s
	}
	s := make(chan struct{}, 1)
	m.slots[poolID] = s
	return s
}
