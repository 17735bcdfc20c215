package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPoolLocker_SerializesPerPool(t *testing.T) {
	locker := NewMemoryPoolLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "p1")
	require.NoError(t, err)

	other, err := locker.Lock(ctx, "p2")
	require.NoError(t, err)
	other()

	acquired := make(chan struct{})
	go func() {
		u, err := locker.Lock(ctx, "p1")
		if err == nil {
			close(acquired)
			u()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}

func TestMemoryPoolLocker_HonoursContext(t *testing.T) {
	locker := NewMemoryPoolLocker()
	unlock, err := locker.Lock(context.Background(), "p1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "p1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
