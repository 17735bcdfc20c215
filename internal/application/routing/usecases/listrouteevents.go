package usecases

import (
	"context"

	"github.com/hatch-crm/hatch/internal/application/routing/dto"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/shared/constants"
	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/logger"
	"github.com/hatch-crm/hatch/internal/shared/utils"
)

// ListRouteEventsQuery filters the audit log. Empty fields match everything.
type ListRouteEventsQuery struct {
	OrgID    string
	Object   string
	RecordID string
	Decision string
	Kind     string
	RuleID   string
	Cursor   string
	Limit    int
}

// ListRouteEventsResult is one page of events.
type ListRouteEventsResult struct {
	Items      []*dto.RouteEventDTO
	NextCursor string
}

type ListRouteEventsUseCase struct {
	events routeevent.Repository
	logger logger.Interface
}

func NewListRouteEventsUseCase(events routeevent.Repository, logger logger.Interface) *ListRouteEventsUseCase {
	return &ListRouteEventsUseCase{events: events, logger: logger}
}

func (uc *ListRouteEventsUseCase) Execute(ctx context.Context, query ListRouteEventsQuery) (*ListRouteEventsResult, error) {
	uc.logger.Infow("executing list route events use case",
		"object", query.Object, "record_id", query.RecordID, "decision", query.Decision)

	filter, err := uc.buildFilter(query)
	if err != nil {
		return nil, err
	}

	events, err := uc.events.List(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list route events", "error", err)
		return nil, errors.NewInternalError("failed to list route events")
	}

	result := &ListRouteEventsResult{}
	if pageSize := filter.Limit - 1; len(events) > pageSize {
		events = events[:pageSize]
		last := events[len(events)-1]
		result.NextCursor = utils.TimeCursor(last.OccurredAt, last.ID)
	}
	result.Items = dto.ToRouteEventDTOs(events)
	return result, nil
}

// buildFilter requests one row more than the page size to detect a next page.
func (uc *ListRouteEventsUseCase) buildFilter(query ListRouteEventsQuery) (routeevent.Filter, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = constants.DefaultPageSize
	}
	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}

	filter := routeevent.Filter{
		OrgID:    query.OrgID,
		Object:   query.Object,
		RecordID: query.RecordID,
		Decision: query.Decision,
		RuleID:   query.RuleID,
		Limit:    limit + 1,
	}
	switch routeevent.Kind(query.Kind) {
	case "", routeevent.KindAssignment, routeevent.KindReassignment, routeevent.KindValidation:
		filter.Kind = routeevent.Kind(query.Kind)
	default:
		return filter, errors.NewValidationError("unknown event kind", query.Kind)
	}

	cursor, err := utils.DecodeCursor(query.Cursor)
	if err != nil {
		return filter, err
	}
	if !cursor.IsZero() {
		after, err := cursor.Time()
		if err != nil {
			return filter, errors.NewValidationError("invalid cursor")
		}
		filter.AfterOccurredAt = after
		filter.AfterID = cursor.ID
	}
	return filter, nil
}
