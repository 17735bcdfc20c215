// Package dto holds the wire shapes of the rule store.
package dto

import (
	"encoding/json"
	"time"

	"github.com/hatch-crm/hatch/internal/domain/rule"
)

// RuleDTO is a rule as returned by the API.
type RuleDTO struct {
	ID        string          `json:"id"`
	Object    string          `json:"object"`
	Name      string          `json:"name"`
	Family    string          `json:"family"`
	Active    bool            `json:"active"`
	Version   int             `json:"version"`
	DSL       json.RawMessage `json:"dsl"`
	Condition string          `json:"condition"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *time.Time      `json:"deletedAt,omitempty"`
}

func ToRuleDTO(r *rule.Rule) *RuleDTO {
	if r == nil {
		return nil
	}
	out := &RuleDTO{
		ID:        r.ID(),
		Object:    r.Object(),
		Name:      r.Name(),
		Family:    string(r.Family()),
		Active:    r.IsActive(),
		Version:   r.Version(),
		DSL:       json.RawMessage(r.DSL()),
		CreatedAt: r.CreatedAt(),
		UpdatedAt: r.UpdatedAt(),
		DeletedAt: r.DeletedAt(),
	}
	if p := r.Policy(); p != nil && p.Condition != nil {
		out.Condition = p.Condition.String()
	}
	return out
}

func ToRuleDTOs(rules []*rule.Rule) []*RuleDTO {
	out := make([]*RuleDTO, 0, len(rules))
	for _, r := range rules {
		out = append(out, ToRuleDTO(r))
	}
	return out
}

// RevisionDTO is one entry of a rule's history.
type RevisionDTO struct {
	ID        string          `json:"id"`
	Version   int             `json:"version"`
	Name      string          `json:"name"`
	Active    bool            `json:"active"`
	Deleted   bool            `json:"deleted"`
	DSL       json.RawMessage `json:"dsl"`
	ChangedAt time.Time       `json:"changedAt"`
}

func ToRevisionDTOs(revs []*rule.Revision) []*RevisionDTO {
	out := make([]*RevisionDTO, 0, len(revs))
	for _, r := range revs {
		out = append(out, &RevisionDTO{
			ID:        r.ID,
			Version:   r.Version,
			Name:      r.Name,
			Active:    r.Active,
			Deleted:   r.Deleted,
			DSL:       json.RawMessage(r.DSL),
			ChangedAt: r.ChangedAt,
		})
	}
	return out
}

// DeleteResult acknowledges a soft delete.
type DeleteResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// StatusDeleted is the only DeleteResult status.
const StatusDeleted = "deleted"
