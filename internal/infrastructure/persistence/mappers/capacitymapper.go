package mappers

import (
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/models"
)

func CapacityToDomain(model *models.OwnerCapacityModel) capacity.Snapshot {
	return capacity.Snapshot{
		OwnerID:     model.OwnerID,
		ActiveCount: model.ActiveCount,
		MaxCapacity: model.MaxCapacity,
		LastUpdated: model.UpdatedAt.UTC(),
		Version:     model.Version,
	}
}
