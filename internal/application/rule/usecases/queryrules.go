package usecases

import (
	"context"

	"github.com/hatch-crm/hatch/internal/application/rule/dto"
	"github.com/hatch-crm/hatch/internal/domain/rule"
	"github.com/hatch-crm/hatch/internal/shared/constants"
	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/logger"
	"github.com/hatch-crm/hatch/internal/shared/utils"
)

// GetRuleQuery fetches one rule, deleted or not.
type GetRuleQuery struct {
	OrgID  string
	RuleID string
}

type GetRuleUseCase struct {
	repo   rule.Repository
	logger logger.Interface
}

func NewGetRuleUseCase(repo rule.Repository, logger logger.Interface) *GetRuleUseCase {
	return &GetRuleUseCase{repo: repo, logger: logger}
}

func (uc *GetRuleUseCase) Execute(ctx context.Context, query GetRuleQuery) (*dto.RuleDTO, error) {
	uc.logger.Debugw("executing get rule use case", "rule_id", query.RuleID)

	r, err := loadRule(ctx, uc.repo, query.OrgID, query.RuleID)
	if err != nil {
		return nil, err
	}
	return dto.ToRuleDTO(r), nil
}

// ListRulesQuery selects one page of rules in evaluation order.
type ListRulesQuery struct {
	OrgID      string
	Object     string
	Family     string
	ActiveOnly bool
	Cursor     string
	Limit      int
}

type ListRulesResult struct {
	Items      []*dto.RuleDTO
	NextCursor string
}

type ListRulesUseCase struct {
	repo   rule.Repository
	logger logger.Interface
}

func NewListRulesUseCase(repo rule.Repository, logger logger.Interface) *ListRulesUseCase {
	return &ListRulesUseCase{repo: repo, logger: logger}
}

func (uc *ListRulesUseCase) Execute(ctx context.Context, query ListRulesQuery) (*ListRulesResult, error) {
	uc.logger.Infow("executing list rules use case",
		"object", query.Object, "family", query.Family, "active_only", query.ActiveOnly)

	limit := query.Limit
	if limit <= 0 {
		limit = constants.DefaultPageSize
	}
	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}
	family := rule.Family(query.Family)
	if family != "" && !family.IsValid() {
		return nil, errors.NewValidationError("family must be validation or assignment", query.Family)
	}

	filter := rule.ListFilter{
		OrgID:      query.OrgID,
		Object:     query.Object,
		Family:     family,
		ActiveOnly: query.ActiveOnly,
		Limit:      limit + 1,
	}
	cursor, err := utils.DecodeCursor(query.Cursor)
	if err != nil {
		return nil, err
	}
	if !cursor.IsZero() {
		after, err := cursor.Time()
		if err != nil {
			return nil, errors.NewValidationError("invalid cursor")
		}
		filter.AfterCreatedAt = after
		filter.AfterID = cursor.ID
	}

	rules, err := uc.repo.List(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list rules", "error", err)
		return nil, errors.NewInternalError("failed to list rules")
	}

	result := &ListRulesResult{}
	if len(rules) > limit {
		rules = rules[:limit]
		last := rules[len(rules)-1]
		result.NextCursor = utils.TimeCursor(last.CreatedAt(), last.ID())
	}
	result.Items = dto.ToRuleDTOs(rules)
	return result, nil
}

// ListRuleRevisionsQuery reads a rule's history, oldest first.
type ListRuleRevisionsQuery struct {
	OrgID  string
	RuleID string
}

type ListRuleRevisionsUseCase struct {
	repo   rule.Repository
	logger logger.Interface
}

func NewListRuleRevisionsUseCase(repo rule.Repository, logger logger.Interface) *ListRuleRevisionsUseCase {
	return &ListRuleRevisionsUseCase{repo: repo, logger: logger}
}

func (uc *ListRuleRevisionsUseCase) Execute(ctx context.Context, query ListRuleRevisionsQuery) ([]*dto.RevisionDTO, error) {
	uc.logger.Debugw("executing list rule revisions use case", "rule_id", query.RuleID)

	if _, err := loadRule(ctx, uc.repo, query.OrgID, query.RuleID); err != nil {
		return nil, err
	}
	revs, err := uc.repo.ListRevisions(ctx, query.RuleID)
	if err != nil {
		uc.logger.Errorw("failed to list rule revisions", "rule_id", query.RuleID, "error", err)
		return nil, errors.NewInternalError("failed to list rule revisions")
	}
	return dto.ToRevisionDTOs(revs), nil
}
