package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hatch-crm/hatch/internal/application/sla/dto"
	slausecases "github.com/hatch-crm/hatch/internal/application/sla/usecases"
	"github.com/hatch-crm/hatch/internal/shared/constants"
)

// DashboardCache keeps the SLA dashboard read model per organisation for a
// short TTL.
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDashboardCache(client *redis.Client, ttl time.Duration) *DashboardCache {
	return &DashboardCache{client: client, ttl: ttl}
}

func (c *DashboardCache) buildKey(orgID string) string {
	return constants.RedisKeyDashboard + orgID
}

// Get returns nil without error on a miss.
func (c *DashboardCache) Get(ctx context.Context, orgID string) (*dto.DashboardDTO, error) {
	data, err := c.client.Get(ctx, c.buildKey(orgID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read dashboard cache: %w", err)
	}

	var d dto.DashboardDTO
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard cache: %w", err)
	}
	return &d, nil
}

func (c *DashboardCache) Set(ctx context.Context, orgID string, d *dto.DashboardDTO) error {
	if c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode dashboard: %w", err)
	}
	if err := c.client.Set(ctx, c.buildKey(orgID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write dashboard cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached dashboard of one organisation.
func (c *DashboardCache) Invalidate(ctx context.Context, orgID string) error {
	if err := c.client.Del(ctx, c.buildKey(orgID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate dashboard cache: %w", err)
	}
	return nil
}

var _ slausecases.DashboardCache = (*DashboardCache)(nil)
