package migration

import (
	"github.com/hatch-crm/hatch/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every persisted model, in dependency order.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.RuleModel{},
		&models.RuleRevisionModel{},
		&models.OwnerCapacityModel{},
		&models.PoolMemberModel{},
		&models.RouteEventModel{},
		&models.SLATimerModel{},
	}
}
