// Package testutil provides in-memory repositories and collaborators for
// testing the application layer.
package testutil

import (
	"context"
	"sync"
)

type journalKey struct{}

type journal struct {
	mu    sync.Mutex
	undos []func()
}

func (j *journal) rollback() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.undos) - 1; i >= 0; i-- {
		j.undos[i]()
	}
	j.undos = nil
}

// recordUndo registers a compensating action when ctx is inside a
// MockTxRunner transaction.
func recordUndo(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.mu.Lock()
		j.undos = append(j.undos, undo)
		j.mu.Unlock()
	}
}

// MockTxRunner emulates a transaction over the in-memory repositories: when
// fn fails, every mutation made through the transaction context is undone.
type MockTxRunner struct {
	mu        sync.Mutex
	Commits   int
	Rollbacks int
}

func NewMockTxRunner() *MockTxRunner {
	return &MockTxRunner{}
}

func (m *MockTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}
	j := &journal{}
	err := fn(context.WithValue(ctx, journalKey{}, j))

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		j.rollback()
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}
