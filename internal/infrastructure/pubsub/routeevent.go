package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	routing "github.com/hatch-crm/hatch/internal/application/routing/services"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/shared/constants"
	"github.com/hatch-crm/hatch/internal/shared/goroutine"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// RouteEventMessage is the wire form of one committed route event.
type RouteEventMessage struct {
	ID         string  `json:"id"`
	OrgID      string  `json:"org_id"`
	RecordID   string  `json:"record_id"`
	Object     string  `json:"object"`
	Kind       string  `json:"kind"`
	RuleID     *string `json:"rule_id,omitempty"`
	Decision   string  `json:"decision"`
	Reason     string  `json:"reason"`
	PoolID     string  `json:"pool_id,omitempty"`
	LatencyMs  *int64  `json:"latency_ms,omitempty"`
	OccurredAt int64   `json:"occurred_at"` // unix milliseconds
	InstanceID string  `json:"instance_id"` // source instance, used to skip self-delivery
}

// RouteEventHandler receives events published by any instance.
type RouteEventHandler func(ctx context.Context, msg RouteEventMessage)

// RouteEventBus fans committed route events out over Redis Pub/Sub.
type RouteEventBus struct {
	client     *redis.Client
	instanceID string
	logger     logger.Interface
}

func NewRouteEventBus(client *redis.Client, logger logger.Interface) *RouteEventBus {
	return &RouteEventBus{
		client:     client,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

func (b *RouteEventBus) InstanceID() string {
	return b.instanceID
}

// PublishRouteEvents publishes each event as its own message.
func (b *RouteEventBus) PublishRouteEvents(ctx context.Context, events ...*routeevent.Event) error {
	if len(events) == 0 {
		return nil
	}

	pipe := b.client.Pipeline()
	for _, e := range events {
		data, err := json.Marshal(b.toMessage(e))
		if err != nil {
			return fmt.Errorf("failed to marshal route event: %w", err)
		}
		pipe.Publish(ctx, constants.RedisChannelRouteEvent, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		b.logger.Errorw("failed to publish route events",
			"count", len(events),
			"error", err,
		)
		return fmt.Errorf("failed to publish route events: %w", err)
	}

	b.logger.Debugw("route events published", "count", len(events))
	return nil
}

func (b *RouteEventBus) toMessage(e *routeevent.Event) RouteEventMessage {
	return RouteEventMessage{
		ID:         e.ID,
		OrgID:      e.OrgID,
		RecordID:   e.RecordID,
		Object:     e.Object,
		Kind:       string(e.Kind),
		RuleID:     e.RuleID,
		Decision:   e.Decision,
		Reason:     e.Reason,
		PoolID:     e.PoolID,
		LatencyMs:  e.LatencyMs,
		OccurredAt: e.OccurredAt.UnixMilli(),
		InstanceID: b.instanceID,
	}
}

// OccurredTime converts the wire timestamp back to UTC.
func (m RouteEventMessage) OccurredTime() time.Time {
	return time.UnixMilli(m.OccurredAt).UTC()
}

// Subscribe blocks delivering events until ctx is done. With skipSelf set,
// events published by this instance are dropped.
func (b *RouteEventBus) Subscribe(ctx context.Context, skipSelf bool, handler RouteEventHandler) error {
	sub := b.client.Subscribe(ctx, constants.RedisChannelRouteEvent)
	defer sub.Close()

	// Wait for subscription confirmation
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to route events",
		"channel", constants.RedisChannelRouteEvent,
		"instance_id", b.instanceID,
	)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("route event subscriber stopped", "reason", ctx.Err())
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("route event channel closed")
				return nil
			}

			var event RouteEventMessage
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal route event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}
			if skipSelf && event.InstanceID == b.instanceID {
				continue
			}

			goroutine.SafeGo(b.logger, "route-event-handler", func() {
				handler(context.Background(), event)
			})
		}
	}
}

var _ routing.EventPublisher = (*RouteEventBus)(nil)
