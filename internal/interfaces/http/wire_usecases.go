package http

import (
	metricsUsecases "github.com/hatch-crm/hatch/internal/application/metrics/usecases"
	routingUsecases "github.com/hatch-crm/hatch/internal/application/routing/usecases"
	ruleUsecases "github.com/hatch-crm/hatch/internal/application/rule/usecases"
	slaUsecases "github.com/hatch-crm/hatch/internal/application/sla/usecases"
)

// allUseCases holds all use case instances used by the application.
type allUseCases struct {
	// Rule store
	createRuleUC        *ruleUsecases.CreateRuleUseCase
	updateRuleUC        *ruleUsecases.UpdateRuleUseCase
	deleteRuleUC        *ruleUsecases.DeleteRuleUseCase
	getRuleUC           *ruleUsecases.GetRuleUseCase
	listRulesUC         *ruleUsecases.ListRulesUseCase
	listRuleRevisionsUC *ruleUsecases.ListRuleRevisionsUseCase
	importRulesUC       *ruleUsecases.ImportRulesUseCase

	// Record admission
	admitRecordUC        *routingUsecases.AdmitRecordUseCase
	validateTransitionUC *routingUsecases.ValidateTransitionUseCase
	resolveRecordUC      *routingUsecases.ResolveRecordUseCase

	// Capacity
	getCapacityViewUC  *routingUsecases.GetCapacityViewUseCase
	setOwnerCapacityUC *routingUsecases.SetOwnerCapacityUseCase
	setPoolMembersUC   *routingUsecases.SetPoolMembersUseCase
	rebuildCapacityUC  *routingUsecases.RebuildCapacityUseCase

	// Route events
	listRouteEventsUC *routingUsecases.ListRouteEventsUseCase

	// SLA
	processSweepUC *slaUsecases.ProcessSweepUseCase
	getDashboardUC *slaUsecases.GetDashboardUseCase

	// Metrics
	getMetricsUC *metricsUsecases.GetMetricsUseCase
}
