package models

import (
	"time"

	"github.com/hatch-crm/hatch/internal/shared/constants"
)

// OwnerCapacityModel is the derived load row of one owner. Version guards
// every count change.
type OwnerCapacityModel struct {
	OwnerID     string    `gorm:"primaryKey;size:64"`
	ActiveCount int       `gorm:"not null;default:0"`
	MaxCapacity int       `gorm:"not null"`
	Version     int       `gorm:"not null;default:1"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (OwnerCapacityModel) TableName() string {
	return constants.TableOwnerCapacity
}

type PoolMemberModel struct {
	PoolID    string `gorm:"primaryKey;size:64"`
	OwnerID   string `gorm:"primaryKey;size:64;index"`
	CreatedAt time.Time
}

func (PoolMemberModel) TableName() string {
	return constants.TablePoolMembers
}
