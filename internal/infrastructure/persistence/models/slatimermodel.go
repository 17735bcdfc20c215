package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/hatch-crm/hatch/internal/shared/constants"
)

// SLATimerModel persists one record's deadline. LiveKey holds org and record
// while the timer is live and is NULL once closed, so the unique index
// admits a single live timer per record.
type SLATimerModel struct {
	ID          string     `gorm:"primaryKey;size:40"`
	OrgID       string     `gorm:"size:64;not null;index"`
	RecordID    string     `gorm:"size:128;not null;index"`
	LiveKey     *string    `gorm:"size:200;uniqueIndex"`
	Object      string     `gorm:"size:64;not null"`
	OwnerID     string     `gorm:"size:64;not null;index"`
	PoolID      string     `gorm:"size:64"`
	StartedAt   time.Time  `gorm:"not null"`
	DeadlineAt  time.Time  `gorm:"not null;index"`
	Status      string     `gorm:"size:20;not null;index"`
	EscalatedAt *time.Time `gorm:"default:null"`
	BreachedAt  *time.Time `gorm:"default:null"`
	Episode     int        `gorm:"not null;default:0"`
	ClosedAt    *time.Time `gorm:"index"`
	Version     int        `gorm:"not null;default:1"`
	UpdatedAt   time.Time  `gorm:"not null"`

	// Snapshot is the flattened record used again on escalation.
	Snapshot datatypes.JSON `gorm:"default:null"`
}

func (SLATimerModel) TableName() string {
	return constants.TableSLATimers
}
