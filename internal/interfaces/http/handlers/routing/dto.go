package routing

import (
	"time"

	"github.com/hatch-crm/hatch/internal/application/routing/usecases"
)

// AdmitRecordRequest is the body of an admission. Record is the flattened or
// nested field map the rules are evaluated against.
type AdmitRecordRequest struct {
	Transition string         `json:"transition" binding:"omitempty,max=64"`
	Record     map[string]any `json:"record" binding:"required"`
	Requalify  bool           `json:"requalify"`
	ReceivedAt *time.Time     `json:"receivedAt"`
}

func (r AdmitRecordRequest) ToCommand(orgID, object, recordID string) usecases.AdmitRecordCommand {
	return usecases.AdmitRecordCommand{
		OrgID:      orgID,
		Object:     object,
		RecordID:   recordID,
		Transition: r.Transition,
		Record:     r.Record,
		Requalify:  r.Requalify,
		ReceivedAt: r.ReceivedAt,
	}
}

type ValidateTransitionRequest struct {
	Transition string         `json:"transition" binding:"omitempty,max=64"`
	Record     map[string]any `json:"record" binding:"required"`
}

type ResolveRecordRequest struct {
	Outcome string `json:"outcome" binding:"omitempty,oneof=RESOLVED CANCELLED"`
}

type SetOwnerCapacityRequest struct {
	MaxCapacity *int `json:"maxCapacity" binding:"required,gte=0"`
}

type SetPoolMembersRequest struct {
	Members []string `json:"members" binding:"omitempty,dive,required,max=64"`
}

// listRouteEventsParams holds the enum filters checked before querying.
type listRouteEventsParams struct {
	Kind     string `json:"kind" validate:"omitempty,oneof=assignment reassignment validation"`
	Decision string `json:"decision" validate:"omitempty,max=64"`
}
