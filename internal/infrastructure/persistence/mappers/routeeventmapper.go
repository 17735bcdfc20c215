package mappers

import (
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/models"
)

func RouteEventToModel(e *routeevent.Event) *models.RouteEventModel {
	return &models.RouteEventModel{
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
		OccurredAt: e.OccurredAt,
	}
}

func RouteEventToDomain(model *models.RouteEventModel) *routeevent.Event {
	return &routeevent.Event{
		ID:         model.ID,
		OrgID:      model.OrgID,
		RecordID:   model.RecordID,
		Object:     model.Object,
		Kind:       routeevent.Kind(model.Kind),
		RuleID:     model.RuleID,
		Decision:   model.Decision,
		Reason:     model.Reason,
		PoolID:     model.PoolID,
		LatencyMs:  model.LatencyMs,
		OccurredAt: model.OccurredAt.UTC(),
	}
}
