package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/hatch-crm/hatch/internal/application/routing/dto"
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/sla"
	"github.com/hatch-crm/hatch/internal/shared/biztime"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// GetCapacityViewQuery optionally narrows the view to one pool.
type GetCapacityViewQuery struct {
	PoolID string
}

// GetCapacityViewUseCase returns owner load for dashboards.
type GetCapacityViewUseCase struct {
	repo    capacity.Repository
	tracker *capacity.Tracker
	logger  logger.Interface
}

func NewGetCapacityViewUseCase(repo capacity.Repository, tracker *capacity.Tracker, logger logger.Interface) *GetCapacityViewUseCase {
	return &GetCapacityViewUseCase{repo: repo, tracker: tracker, logger: logger}
}

func (uc *GetCapacityViewUseCase) Execute(ctx context.Context, query GetCapacityViewQuery) ([]dto.CapacityDTO, error) {
	uc.logger.Infow("executing get capacity view use case", "pool_id", query.PoolID)

	var (
		snaps []capacity.Snapshot
		err   error
	)
	if query.PoolID != "" {
		snaps, err = uc.tracker.PoolSnapshots(ctx, query.PoolID)
	} else {
		snaps, err = uc.repo.ListAll(ctx)
	}
	if err != nil {
		uc.logger.Errorw("failed to load capacity", "pool_id", query.PoolID, "error", err)
		return nil, apperrors.NewInternalError("failed to load capacity")
	}
	return dto.ToCapacityDTOs(snaps), nil
}

// SetOwnerCapacityCommand changes an owner's maximum concurrent records.
type SetOwnerCapacityCommand struct {
	OwnerID     string
	MaxCapacity int
}

type SetOwnerCapacityUseCase struct {
	repo   capacity.Repository
	clock  biztime.Clock
	logger logger.Interface
}

func NewSetOwnerCapacityUseCase(repo capacity.Repository, clock biztime.Clock, logger logger.Interface) *SetOwnerCapacityUseCase {
	return &SetOwnerCapacityUseCase{repo: repo, clock: clock, logger: logger}
}

func (uc *SetOwnerCapacityUseCase) Execute(ctx context.Context, cmd SetOwnerCapacityCommand) (*dto.CapacityDTO, error) {
	uc.logger.Infow("executing set owner capacity use case", "owner_id", cmd.OwnerID, "max_capacity", cmd.MaxCapacity)

	ownerID := strings.TrimSpace(cmd.OwnerID)
	if ownerID == "" {
		return nil, apperrors.NewValidationError("owner ID is required")
	}
	if cmd.MaxCapacity < 0 {
		return nil, apperrors.NewValidationError("maxCapacity must not be negative")
	}

	snap, err := uc.repo.SetMaxCapacity(ctx, ownerID, cmd.MaxCapacity, uc.clock.Now())
	if errors.Is(err, capacity.ErrInvalidMax) {
		return nil, apperrors.NewValidationError("maxCapacity must not be negative")
	}
	if err != nil {
		uc.logger.Errorw("failed to set owner capacity", "owner_id", ownerID, "error", err)
		return nil, apperrors.NewInternalError("failed to update capacity")
	}

	uc.logger.Infow("owner capacity updated", "owner_id", ownerID, "max_capacity", snap.MaxCapacity)
	out := dto.ToCapacityDTO(snap)
	return &out, nil
}

// SetPoolMembersCommand replaces a pool's candidate owners. An empty list
// removes the pool.
type SetPoolMembersCommand struct {
	PoolID   string
	OwnerIDs []string
}

// PoolDTO is a pool with its members' load.
type PoolDTO struct {
	PoolID  string            `json:"poolId"`
	Members []dto.CapacityDTO `json:"members"`
}

type SetPoolMembersUseCase struct {
	repo    capacity.Repository
	tracker *capacity.Tracker
	logger  logger.Interface
}

func NewSetPoolMembersUseCase(repo capacity.Repository, tracker *capacity.Tracker, logger logger.Interface) *SetPoolMembersUseCase {
	return &SetPoolMembersUseCase{repo: repo, tracker: tracker, logger: logger}
}

func (uc *SetPoolMembersUseCase) Execute(ctx context.Context, cmd SetPoolMembersCommand) (*PoolDTO, error) {
	uc.logger.Infow("executing set pool members use case", "pool_id", cmd.PoolID, "members", len(cmd.OwnerIDs))

	poolID := strings.TrimSpace(cmd.PoolID)
	if poolID == "" {
		return nil, apperrors.NewValidationError("pool ID is required")
	}
	members := make([]string, 0, len(cmd.OwnerIDs))
	seen := make(map[string]bool, len(cmd.OwnerIDs))
	for _, o := range cmd.OwnerIDs {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, apperrors.NewValidationError("owner IDs must not be blank")
		}
		if !seen[o] {
			seen[o] = true
			members = append(members, o)
		}
	}

	if err := uc.repo.SetPoolMembers(ctx, poolID, members); err != nil {
		uc.logger.Errorw("failed to set pool members", "pool_id", poolID, "error", err)
		return nil, apperrors.NewInternalError("failed to update pool")
	}
	snaps, err := uc.tracker.PoolSnapshots(ctx, poolID)
	if err != nil {
		uc.logger.Errorw("failed to load pool capacity", "pool_id", poolID, "error", err)
		return nil, apperrors.NewInternalError("failed to load pool")
	}

	uc.logger.Infow("pool members updated", "pool_id", poolID, "members", len(members))
	return &PoolDTO{PoolID: poolID, Members: dto.ToCapacityDTOs(snaps)}, nil
}

// RebuildCapacityUseCase recomputes every owner's active count from live
// SLA timers, repairing drift after manual data fixes.
type RebuildCapacityUseCase struct {
	repo    capacity.Repository
	timers  sla.Repository
	tracker *capacity.Tracker
	clock   biztime.Clock
	logger  logger.Interface
}

func NewRebuildCapacityUseCase(
	repo capacity.Repository,
	timers sla.Repository,
	tracker *capacity.Tracker,
	clock biztime.Clock,
	logger logger.Interface,
) *RebuildCapacityUseCase {
	return &RebuildCapacityUseCase{repo: repo, timers: timers, tracker: tracker, clock: clock, logger: logger}
}

func (uc *RebuildCapacityUseCase) Execute(ctx context.Context) ([]dto.CapacityDTO, error) {
	uc.logger.Infow("executing rebuild capacity use case")

	counts, err := uc.timers.LiveOwnerCounts(ctx)
	if err != nil {
		uc.logger.Errorw("failed to count live timers", "error", err)
		return nil, apperrors.NewInternalError("failed to count live timers")
	}
	if err := uc.repo.ReplaceCounts(ctx, counts, uc.tracker.DefaultMax(), uc.clock.Now()); err != nil {
		uc.logger.Errorw("failed to replace capacity counts", "error", err)
		return nil, apperrors.NewInternalError("failed to rebuild capacity")
	}
	snaps, err := uc.repo.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load capacity")
	}

	uc.logger.Infow("capacity rebuilt", "owners", len(snaps))
	return dto.ToCapacityDTOs(snaps), nil
}
