package rule

import (
	"context"

	"github.com/hatch-crm/hatch/internal/application/rule/dto"
	"github.com/hatch-crm/hatch/internal/application/rule/usecases"
)

// Use case interfaces for Handler

type createRuleUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreateRuleCommand) (*dto.RuleDTO, error)
}

type updateRuleUseCase interface {
	Execute(ctx context.Context, cmd usecases.UpdateRuleCommand) (*dto.RuleDTO, error)
}

type deleteRuleUseCase interface {
	Execute(ctx context.Context, cmd usecases.DeleteRuleCommand) (*dto.DeleteResult, error)
}

type getRuleUseCase interface {
	Execute(ctx context.Context, query usecases.GetRuleQuery) (*dto.RuleDTO, error)
}

type listRulesUseCase interface {
	Execute(ctx context.Context, query usecases.ListRulesQuery) (*usecases.ListRulesResult, error)
}

type listRuleRevisionsUseCase interface {
	Execute(ctx context.Context, query usecases.ListRuleRevisionsQuery) ([]*dto.RevisionDTO, error)
}

type importRulesUseCase interface {
	Execute(ctx context.Context, cmd usecases.ImportRulesCommand) (*usecases.ImportRulesResult, error)
}
