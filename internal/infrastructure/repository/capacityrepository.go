package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/mappers"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/models"
	"github.com/hatch-crm/hatch/internal/shared/db"
	sharederrors "github.com/hatch-crm/hatch/internal/shared/errors"
)

// CapacityRepositoryImpl keeps owner load rows and pool membership.
type CapacityRepositoryImpl struct {
	db *gorm.DB
}

func NewCapacityRepository(gdb *gorm.DB) *CapacityRepositoryImpl {
	return &CapacityRepositoryImpl{db: gdb}
}

func (r *CapacityRepositoryImpl) Find(ctx context.Context, ownerIDs []string) (map[string]capacity.Snapshot, error) {
	out := make(map[string]capacity.Snapshot, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}

	var rows []*models.OwnerCapacityModel
	if err := db.GetTxFromContext(ctx, r.db).Where("owner_id IN ?", ownerIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load owner capacity: %w", err)
	}
	for _, row := range rows {
		out[row.OwnerID] = mappers.CapacityToDomain(row)
	}
	return out, nil
}

func (r *CapacityRepositoryImpl) ListAll(ctx context.Context) ([]capacity.Snapshot, error) {
	var rows []*models.OwnerCapacityModel
	if err := db.GetTxFromContext(ctx, r.db).Order("owner_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list owner capacity: %w", err)
	}
	out := make([]capacity.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, mappers.CapacityToDomain(row))
	}
	return out, nil
}

// Increment is a compare-and-swap on version. An owner without a row is
// inserted; losing that insert to a concurrent writer is also a race.
func (r *CapacityRepositoryImpl) Increment(ctx context.Context, snap capacity.Snapshot, now time.Time) (capacity.Snapshot, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	now = now.UTC()

	if !snap.Persisted() {
		model := &models.OwnerCapacityModel{
			OwnerID:     snap.OwnerID,
			ActiveCount: 1,
			MaxCapacity: snap.MaxCapacity,
			Version:     1,
			UpdatedAt:   now,
		}
		if err := tx.Create(model).Error; err != nil {
			if sharederrors.IsDuplicateError(err) {
				return capacity.Snapshot{}, capacity.ErrCapacityRace
			}
			return capacity.Snapshot{}, fmt.Errorf("failed to insert owner capacity: %w", err)
		}
		return mappers.CapacityToDomain(model), nil
	}

	result := tx.Model(&models.OwnerCapacityModel{}).
		Where("owner_id = ? AND version = ?", snap.OwnerID, snap.Version).
		Updates(map[string]interface{}{
			"active_count": gorm.Expr("active_count + ?", 1),
			"version":      gorm.Expr("version + ?", 1),
			"updated_at":   now,
		})
	if result.Error != nil {
		return capacity.Snapshot{}, fmt.Errorf("failed to increment owner capacity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return capacity.Snapshot{}, capacity.ErrCapacityRace
	}

	snap.ActiveCount++
	snap.Version++
	snap.LastUpdated = now
	return snap, nil
}

func (r *CapacityRepositoryImpl) Decrement(ctx context.Context, ownerID string, now time.Time) error {
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.OwnerCapacityModel{}).
		Where("owner_id = ?", ownerID).
		Updates(map[string]interface{}{
			"active_count": gorm.Expr("CASE WHEN active_count > 0 THEN active_count - 1 ELSE 0 END"),
			"version":      gorm.Expr("version + ?", 1),
			"updated_at":   now.UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to decrement owner capacity: %w", err)
	}
	return nil
}

func (r *CapacityRepositoryImpl) SetMaxCapacity(ctx context.Context, ownerID string, maxCapacity int, now time.Time) (capacity.Snapshot, error) {
	if maxCapacity < 0 {
		return capacity.Snapshot{}, capacity.ErrInvalidMax
	}
	tx := db.GetTxFromContext(ctx, r.db)
	now = now.UTC()

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"max_capacity": maxCapacity,
			"version":      gorm.Expr("version + ?", 1),
			"updated_at":   now,
		}),
	}).Create(&models.OwnerCapacityModel{
		OwnerID:     ownerID,
		MaxCapacity: maxCapacity,
		Version:     1,
		UpdatedAt:   now,
	}).Error
	if err != nil {
		return capacity.Snapshot{}, fmt.Errorf("failed to set max capacity: %w", err)
	}

	var model models.OwnerCapacityModel
	if err := tx.Where("owner_id = ?", ownerID).First(&model).Error; err != nil {
		return capacity.Snapshot{}, fmt.Errorf("failed to reload owner capacity: %w", err)
	}
	return mappers.CapacityToDomain(&model), nil
}

// ReplaceCounts zeroes every row, then writes the recomputed counts.
func (r *CapacityRepositoryImpl) ReplaceCounts(ctx context.Context, counts map[string]int, defaultMax int, now time.Time) error {
	now = now.UTC()
	return db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.OwnerCapacityModel{}).
			Where("1 = 1").
			Updates(map[string]interface{}{
				"active_count": 0,
				"version":      gorm.Expr("version + ?", 1),
				"updated_at":   now,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to reset owner capacity: %w", err)
		}

		for ownerID, n := range counts {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "owner_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"active_count": n,
					"updated_at":   now,
				}),
			}).Create(&models.OwnerCapacityModel{
				OwnerID:     ownerID,
				ActiveCount: n,
				MaxCapacity: defaultMax,
				Version:     1,
				UpdatedAt:   now,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to write count for %s: %w", ownerID, err)
			}
		}
		return nil
	})
}

func (r *CapacityRepositoryImpl) PoolMembers(ctx context.Context, poolID string) ([]string, error) {
	var owners []string
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.PoolMemberModel{}).
		Where("pool_id = ?", poolID).
		Order("owner_id ASC").
		Pluck("owner_id", &owners).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pool members: %w", err)
	}
	return owners, nil
}

// SetPoolMembers replaces the membership of a pool. An empty list removes it.
func (r *CapacityRepositoryImpl) SetPoolMembers(ctx context.Context, poolID string, ownerIDs []string) error {
	return db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pool_id = ?", poolID).Delete(&models.PoolMemberModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear pool %s: %w", poolID, err)
		}
		if len(ownerIDs) == 0 {
			return nil
		}
		rows := make([]*models.PoolMemberModel, 0, len(ownerIDs))
		for _, o := range ownerIDs {
			rows = append(rows, &models.PoolMemberModel{PoolID: poolID, OwnerID: o})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to write pool %s: %w", poolID, err)
		}
		return nil
	})
}

func (r *CapacityRepositoryImpl) PoolsOf(ctx context.Context, ownerID string) ([]string, error) {
	var pools []string
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.PoolMemberModel{}).
		Where("owner_id = ?", ownerID).
		Order("pool_id ASC").
		Pluck("pool_id", &pools).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pools of %s: %w", ownerID, err)
	}
	return pools, nil
}

var _ capacity.Repository = (*CapacityRepositoryImpl)(nil)

