package mappers

import (
	"fmt"

	"gorm.io/datatypes"

	"github.com/hatch-crm/hatch/internal/domain/rule"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/models"
)

func RuleToModel(r *rule.Rule) *models.RuleModel {
	return &models.RuleModel{
		ID:        r.ID(),
		OrgID:     r.OrgID(),
		Object:    r.Object(),
		Family:    string(r.Family()),
		Name:      r.Name(),
		Active:    r.IsActive(),
		Version:   r.Version(),
		DSL:       datatypes.JSON(r.DSL()),
		CreatedAt: r.CreatedAt(),
		UpdatedAt: r.UpdatedAt(),
		DeletedAt: r.DeletedAt(),
	}
}

// RuleToDomain recompiles the stored document. A row that no longer
// compiles is reported rather than silently skipped.
func RuleToDomain(model *models.RuleModel) (*rule.Rule, error) {
	r, err := rule.ReconstructRule(
		model.ID,
		model.OrgID,
		model.Object,
		model.Name,
		rule.Family(model.Family),
		model.Active,
		model.Version,
		[]byte(model.DSL),
		model.CreatedAt.UTC(),
		model.UpdatedAt.UTC(),
		utcPtr(model.DeletedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("reconstruct rule %s: %w", model.ID, err)
	}
	return r, nil
}

func RulesToDomain(rows []*models.RuleModel) ([]*rule.Rule, error) {
	out := make([]*rule.Rule, 0, len(rows))
	for _, row := range rows {
		r, err := RuleToDomain(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func RevisionToModel(rev *rule.Revision) *models.RuleRevisionModel {
	return &models.RuleRevisionModel{
		ID:        rev.ID,
		RuleID:    rev.RuleID,
		Version:   rev.Version,
		Name:      rev.Name,
		Active:    rev.Active,
		Deleted:   rev.Deleted,
		DSL:       datatypes.JSON(rev.DSL),
		ChangedAt: rev.ChangedAt,
	}
}

func RevisionToDomain(model *models.RuleRevisionModel) *rule.Revision {
	return &rule.Revision{
		ID:        model.ID,
		RuleID:    model.RuleID,
		Version:   model.Version,
		Name:      model.Name,
		Active:    model.Active,
		Deleted:   model.Deleted,
		DSL:       []byte(model.DSL),
		ChangedAt: model.ChangedAt.UTC(),
	}
}
