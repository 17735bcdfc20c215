package models

import (
	"time"

	"github.com/hatch-crm/hatch/internal/shared/constants"
)

// RouteEventModel is one immutable routing or validation decision.
type RouteEventModel struct {
	ID         string    `gorm:"primaryKey;size:40"`
	OrgID      string    `gorm:"size:64;not null;index:idx_route_events_org_time,priority:1"`
	RecordID   string    `gorm:"size:128;not null;index"`
	Object     string    `gorm:"size:64;not null"`
	Kind       string    `gorm:"size:20;not null"`
	RuleID     *string   `gorm:"size:40;index"`
	Decision   string    `gorm:"size:64;not null;index"`
	Reason     string    `gorm:"type:text;not null"`
	PoolID     string    `gorm:"size:64"`
	LatencyMs  *int64    `gorm:"default:null"`
	OccurredAt time.Time `gorm:"not null;index:idx_route_events_org_time,priority:2"`
}

func (RouteEventModel) TableName() string {
	return constants.TableRouteEvents
}
