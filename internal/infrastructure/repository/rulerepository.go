package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hatch-crm/hatch/internal/domain/rule"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/mappers"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/models"
	"github.com/hatch-crm/hatch/internal/shared/db"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// RuleRepositoryImpl stores rules and their revision history.
type RuleRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewRuleRepository(gdb *gorm.DB, log logger.Interface) *RuleRepositoryImpl {
	return &RuleRepositoryImpl{db: gdb, logger: log}
}

func (r *RuleRepositoryImpl) Create(ctx context.Context, ru *rule.Rule) error {
	model := mappers.RuleToModel(ru)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

// Update writes every mutable column guarded by the previous version.
func (r *RuleRepositoryImpl) Update(ctx context.Context, ru *rule.Rule, expectedVersion int) error {
	model := mappers.RuleToModel(ru)
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.RuleModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"active":     model.Active,
			"version":    model.Version,
			"dsl":        model.DSL,
			"updated_at": model.UpdatedAt,
			"deleted_at": model.DeletedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update rule: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.RuleModel{}).Where("id = ?", model.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check rule existence: %w", err)
	}
	if count == 0 {
		return rule.ErrRuleNotFound
	}
	return rule.ErrVersionConflict
}

func (r *RuleRepositoryImpl) GetByID(ctx context.Context, ruleID string) (*rule.Rule, error) {
	var model models.RuleModel
	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", ruleID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rule.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return mappers.RuleToDomain(&model)
}

func (r *RuleRepositoryImpl) List(ctx context.Context, filter rule.ListFilter) ([]*rule.Rule, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.RuleModel{})

	if filter.OrgID != "" {
		query = query.Where("org_id = ?", filter.OrgID)
	}
	if filter.Object != "" {
		query = query.Where("object = ?", filter.Object)
	}
	if filter.Family != "" {
		query = query.Where("family = ?", string(filter.Family))
	}
	if filter.ActiveOnly {
		query = query.Scopes(db.NotDeleted()).Where("active = ?", true)
	}
	query = query.Scopes(db.SeekAfter("created_at", filter.AfterCreatedAt, filter.AfterID)).
		Order("created_at ASC, id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []*models.RuleModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return mappers.RulesToDomain(rows)
}

// ListActive returns the evaluation set of one family. A stored document
// that fails to compile is logged and left out so one bad row cannot stop
// routing.
func (r *RuleRepositoryImpl) ListActive(ctx context.Context, orgID, object string, family rule.Family) ([]*rule.Rule, error) {
	var rows []*models.RuleModel
	err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.NotDeleted()).
		Where("org_id = ? AND object = ? AND family = ? AND active = ?", orgID, object, string(family), true).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}

	out := make([]*rule.Rule, 0, len(rows))
	for _, row := range rows {
		ru, err := mappers.RuleToDomain(row)
		if err != nil {
			r.logger.Errorw("skipping rule that no longer compiles", "rule_id", row.ID, "error", err)
			continue
		}
		out = append(out, ru)
	}
	return out, nil
}

func (r *RuleRepositoryImpl) ExistsByName(ctx context.Context, orgID, object, name, excludeID string) (bool, error) {
	query := db.GetTxFromContext(ctx, r.db).
		Model(&models.RuleModel{}).
		Scopes(db.NotDeleted()).
		Where("org_id = ? AND object = ? AND name = ?", orgID, object, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check rule name: %w", err)
	}
	return count > 0, nil
}

func (r *RuleRepositoryImpl) AppendRevision(ctx context.Context, rev *rule.Revision) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.RevisionToModel(rev)).Error; err != nil {
		return fmt.Errorf("failed to append rule revision: %w", err)
	}
	return nil
}

func (r *RuleRepositoryImpl) ListRevisions(ctx context.Context, ruleID string) ([]*rule.Revision, error) {
	var rows []*models.RuleRevisionModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("rule_id = ?", ruleID).
		Order("version ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rule revisions: %w", err)
	}

	out := make([]*rule.Revision, 0, len(rows))
	for _, row := range rows {
		out = append(out, mappers.RevisionToDomain(row))
	}
	return out, nil
}

var _ rule.Repository = (*RuleRepositoryImpl)(nil)
