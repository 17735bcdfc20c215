package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/mappers"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/models"
	"github.com/hatch-crm/hatch/internal/shared/db"
)

const routeEventBatchSize = 100

// RouteEventRepositoryImpl is the append-only decision log.
type RouteEventRepositoryImpl struct {
	db *gorm.DB
}

func NewRouteEventRepository(gdb *gorm.DB) *RouteEventRepositoryImpl {
	return &RouteEventRepositoryImpl{db: gdb}
}

func (r *RouteEventRepositoryImpl) Append(ctx context.Context, events ...*routeevent.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]*models.RouteEventModel, 0, len(events))
	for _, e := range events {
		rows = append(rows, mappers.RouteEventToModel(e))
	}
	if err := db.GetTxFromContext(ctx, r.db).CreateInBatches(rows, routeEventBatchSize).Error; err != nil {
		return fmt.Errorf("failed to append route events: %w", err)
	}
	return nil
}

func (r *RouteEventRepositoryImpl) List(ctx context.Context, filter routeevent.Filter) ([]*routeevent.Event, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.RouteEventModel{})

	if filter.OrgID != "" {
		query = query.Where("org_id = ?", filter.OrgID)
	}
	if filter.Object != "" {
		query = query.Where("object = ?", filter.Object)
	}
	if filter.RecordID != "" {
		query = query.Where("record_id = ?", filter.RecordID)
	}
	if filter.Decision != "" {
		query = query.Where("decision = ?", filter.Decision)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", string(filter.Kind))
	}
	if filter.RuleID != "" {
		query = query.Where("rule_id = ?", filter.RuleID)
	}
	query = query.Scopes(db.SeekAfter("occurred_at", filter.AfterOccurredAt.UTC(), filter.AfterID)).
		Order("occurred_at ASC, id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []*models.RouteEventModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list route events: %w", err)
	}
	out := make([]*routeevent.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, mappers.RouteEventToDomain(row))
	}
	return out, nil
}

func (r *RouteEventRepositoryImpl) window(ctx context.Context, orgID string, w routeevent.Window) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db).
		Model(&models.RouteEventModel{}).
		Where("org_id = ? AND occurred_at >= ? AND occurred_at < ?", orgID, w.From.UTC(), w.To.UTC())
}

type ruleHitRow struct {
	RuleID string
	Kind   string
	Hits   int64
}

// RuleHits counts rule-attributed events per rule and kind, busiest first.
func (r *RouteEventRepositoryImpl) RuleHits(ctx context.Context, orgID string, w routeevent.Window) ([]routeevent.RuleHit, error) {
	var rows []ruleHitRow
	err := r.window(ctx, orgID, w).
		Select("rule_id, kind, COUNT(*) AS hits").
		Where("rule_id IS NOT NULL").
		Group("rule_id, kind").
		Order("hits DESC, rule_id ASC, kind ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count rule hits: %w", err)
	}

	out := make([]routeevent.RuleHit, 0, len(rows))
	for _, row := range rows {
		out = append(out, routeevent.RuleHit{RuleID: row.RuleID, Kind: routeevent.Kind(row.Kind), Hits: row.Hits})
	}
	return out, nil
}

type latencyRow struct {
	Avg   sql.NullFloat64
	Total int64
}

func (r *RouteEventRepositoryImpl) AverageLatencyMs(ctx context.Context, orgID string, w routeevent.Window) (float64, bool, error) {
	var row latencyRow
	err := r.window(ctx, orgID, w).
		Select("AVG(latency_ms) AS avg, COUNT(*) AS total").
		Where("kind = ? AND latency_ms IS NOT NULL", string(routeevent.KindAssignment)).
		Scan(&row).Error
	if err != nil {
		return 0, false, fmt.Errorf("failed to average assignment latency: %w", err)
	}
	if row.Total == 0 || !row.Avg.Valid {
		return 0, false, nil
	}
	return row.Avg.Float64, true, nil
}

func (r *RouteEventRepositoryImpl) CountByDecision(ctx context.Context, orgID string, w routeevent.Window, decision string) (int64, error) {
	var count int64
	if err := r.window(ctx, orgID, w).Where("decision = ?", decision).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count route events: %w", err)
	}
	return count, nil
}

var _ routeevent.Repository = (*RouteEventRepositoryImpl)(nil)
