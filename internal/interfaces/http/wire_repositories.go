package http

import (
	"github.com/hatch-crm/hatch/internal/domain/capacity"
	"github.com/hatch-crm/hatch/internal/domain/routeevent"
	"github.com/hatch-crm/hatch/internal/domain/rule"
	"github.com/hatch-crm/hatch/internal/domain/sla"
)

// repositories holds all repository instances used by the application.
type repositories struct {
	ruleRepo       rule.Repository
	capacityRepo   capacity.Repository
	routeEventRepo routeevent.Repository
	slaTimerRepo   sla.Repository
}
