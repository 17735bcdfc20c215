package db

import (
	"gorm.io/gorm"
)

// NotDeleted filters out soft-deleted rows for queries built with Model or Table.
func NotDeleted() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("deleted_at IS NULL")
	}
}

// Live filters SLA timers that have not been closed.
func Live() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("closed_at IS NULL")
	}
}

// SeekAfter applies keyset pagination on (column, id) in ascending order.
func SeekAfter(column string, key any, id string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if id == "" {
			return db
		}
		return db.Where("("+column+" > ?) OR ("+column+" = ? AND id > ?)", key, key, id)
	}
}
