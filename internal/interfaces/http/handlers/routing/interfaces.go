package routing

import (
	"context"

	"github.com/hatch-crm/hatch/internal/application/routing/dto"
	"github.com/hatch-crm/hatch/internal/application/routing/usecases"
)

// Use case interfaces for RecordHandler

type admitRecordUseCase interface {
	Execute(ctx context.Context, cmd usecases.AdmitRecordCommand) (*dto.DecisionDTO, error)
}

type validateTransitionUseCase interface {
	Execute(ctx context.Context, cmd usecases.ValidateTransitionCommand) (*dto.ValidationDTO, error)
}

type resolveRecordUseCase interface {
	Execute(ctx context.Context, cmd usecases.ResolveRecordCommand) (*dto.TimerDTO, error)
}

// Use case interfaces for CapacityHandler

type getCapacityViewUseCase interface {
	Execute(ctx context.Context, query usecases.GetCapacityViewQuery) ([]dto.CapacityDTO, error)
}

type setOwnerCapacityUseCase interface {
	Execute(ctx context.Context, cmd usecases.SetOwnerCapacityCommand) (*dto.CapacityDTO, error)
}

type setPoolMembersUseCase interface {
	Execute(ctx context.Context, cmd usecases.SetPoolMembersCommand) (*usecases.PoolDTO, error)
}

type rebuildCapacityUseCase interface {
	Execute(ctx context.Context) ([]dto.CapacityDTO, error)
}

// Use case interfaces for RouteEventHandler

type listRouteEventsUseCase interface {
	Execute(ctx context.Context, query usecases.ListRouteEventsQuery) (*usecases.ListRouteEventsResult, error)
}
