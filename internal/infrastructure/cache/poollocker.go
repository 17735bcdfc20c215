package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	routing "github.com/hatch-crm/hatch/internal/application/routing/services"
	"github.com/hatch-crm/hatch/internal/shared/constants"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

const poolLockRetryInterval = 20 * time.Millisecond

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisPoolLocker serializes capacity decisions per pool across instances
// with a SETNX lock. The TTL bounds how long a crashed holder blocks a pool.
type RedisPoolLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

func NewRedisPoolLocker(client *redis.Client, ttl time.Duration, logger logger.Interface) *RedisPoolLocker {
	return &RedisPoolLocker{client: client, ttl: ttl, logger: logger}
}

// buildKey builds the Redis key for a pool lock
// Format: hatch:lock:pool:{pool_id}
func (l *RedisPoolLocker) buildKey(poolID string) string {
	return constants.RedisKeyPoolLock + poolID
}

// Lock polls until the pool lock is taken or ctx is done.
func (l *RedisPoolLocker) Lock(ctx context.Context, poolID string) (func(), error) {
	key := l.buildKey(poolID)
	token := uuid.NewString()

	ticker := time.NewTicker(poolLockRetryInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire pool lock: %w", err)
		}
		if acquired {
			return l.unlockFunc(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisPoolLocker) unlockFunc(key, token string) func() {
	return func() {
		// the caller's context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		released, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			l.logger.Warnw("failed to release pool lock", "key", key, "error", err)
			return
		}
		if released == 0 {
			l.logger.Warnw("pool lock expired before release", "key", key, "ttl", l.ttl)
		}
	}
}

var _ routing.PoolLocker = (*RedisPoolLocker)(nil)
