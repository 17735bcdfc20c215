package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hatch-crm/hatch/internal/domain/sla"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/mappers"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/models"
	"github.com/hatch-crm/hatch/internal/shared/db"
	sharederrors "github.com/hatch-crm/hatch/internal/shared/errors"
)

// SLATimerRepositoryImpl stores SLA timers. The live_key unique index keeps
// a single live timer per record.
type SLATimerRepositoryImpl struct {
	db *gorm.DB
}

func NewSLATimerRepository(gdb *gorm.DB) *SLATimerRepositoryImpl {
	return &SLATimerRepositoryImpl{db: gdb}
}

func (r *SLATimerRepositoryImpl) Create(ctx context.Context, t *sla.Timer) error {
	model, err := mappers.SLATimerToModel(t)
	if err != nil {
		return err
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if sharederrors.IsDuplicateError(err) {
			return sla.ErrTimerConflict
		}
		return fmt.Errorf("failed to create sla timer: %w", err)
	}
	return nil
}

func (r *SLATimerRepositoryImpl) Update(ctx context.Context, t *sla.Timer, expectedVersion int) error {
	model, err := mappers.SLATimerToModel(t)
	if err != nil {
		return err
	}
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.SLATimerModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"live_key":     model.LiveKey,
			"owner_id":     model.OwnerID,
			"pool_id":      model.PoolID,
			"deadline_at":  model.DeadlineAt,
			"status":       model.Status,
			"escalated_at": model.EscalatedAt,
			"breached_at":  model.BreachedAt,
			"episode":      model.Episode,
			"closed_at":    model.ClosedAt,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		if sharederrors.IsDuplicateError(result.Error) {
			return sla.ErrTimerConflict
		}
		return fmt.Errorf("failed to update sla timer: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.SLATimerModel{}).Where("id = ?", model.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check sla timer existence: %w", err)
	}
	if count == 0 {
		return sla.ErrTimerNotFound
	}
	return sla.ErrTimerConflict
}

func (r *SLATimerRepositoryImpl) GetLiveByRecord(ctx context.Context, orgID, recordID string) (*sla.Timer, error) {
	var model models.SLATimerModel
	err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.Live()).
		Where("org_id = ? AND record_id = ?", orgID, recordID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sla.ErrTimerNotFound
		}
		return nil, fmt.Errorf("failed to get live sla timer: %w", err)
	}
	return mappers.SLATimerToDomain(&model)
}

func (r *SLATimerRepositoryImpl) ListLive(ctx context.Context, afterDeadline time.Time, afterID string, limit int) ([]*sla.Timer, error) {
	query := db.GetTxFromContext(ctx, r.db).
		Scopes(db.Live(), db.SeekAfter("deadline_at", afterDeadline.UTC(), afterID)).
		Order("deadline_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []*models.SLATimerModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list live sla timers: %w", err)
	}
	return mappers.SLATimersToDomain(rows)
}

type statusCountRow struct {
	Status string
	Total  int64
}

func (r *SLATimerRepositoryImpl) CountLiveByStatus(ctx context.Context, orgID string) (map[sla.Status]int64, error) {
	query := db.GetTxFromContext(ctx, r.db).
		Model(&models.SLATimerModel{}).
		Scopes(db.Live())
	if orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}

	var rows []statusCountRow
	if err := query.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count live sla timers: %w", err)
	}
	out := make(map[sla.Status]int64, len(rows))
	for _, row := range rows {
		out[sla.Status(row.Status)] = row.Total
	}
	return out, nil
}

type closedStatsRow struct {
	Closed   int64
	Breached int64
}

func (r *SLATimerRepositoryImpl) ClosedStats(ctx context.Context, orgID string, from, to time.Time) (int64, int64, error) {
	query := db.GetTxFromContext(ctx, r.db).
		Model(&models.SLATimerModel{}).
		Where("closed_at >= ? AND closed_at < ?", from.UTC(), to.UTC())
	if orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}

	var row closedStatsRow
	err := query.
		Select("COUNT(*) AS closed, COALESCE(SUM(CASE WHEN breached_at IS NOT NULL THEN 1 ELSE 0 END), 0) AS breached").
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute closed sla stats: %w", err)
	}
	return row.Closed, row.Breached, nil
}

type ownerCountRow struct {
	OwnerID string
	Total   int
}

func (r *SLATimerRepositoryImpl) LiveOwnerCounts(ctx context.Context) (map[string]int, error) {
	var rows []ownerCountRow
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.SLATimerModel{}).
		Scopes(db.Live()).
		Select("owner_id, COUNT(*) AS total").
		Group("owner_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count live timers per owner: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.OwnerID] = row.Total
	}
	return out, nil
}

var _ sla.Repository = (*SLATimerRepositoryImpl)(nil)
