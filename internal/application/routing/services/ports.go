// Package services holds the assignment engine, the validation gate and the
// per-pool serialization they rely on.
package services

import (
	"context"

	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/domain/rule"
)

// TxRunner runs fn in one database transaction carried by the context.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolLocker serializes capacity decisions per pool. Lock blocks until the
// pool is free or ctx is done; the returned func releases it.
type PoolLocker interface {
	Lock(ctx context.Context, poolID string) (unlock func(), err error)
}

// EventPublisher fans committed route events out to other instances.
type EventPublisher interface {
	PublishRouteEvents(ctx context.Context, events ...*routeevent.Event) error
}

// RuleSource supplies active rules in evaluation order.
type RuleSource interface {
	ListActive(ctx context.Context, orgID, object string, family rule.Family) ([]*rule.Rule, error)
}
