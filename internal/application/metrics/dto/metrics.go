// Package dto holds the metrics read model.
package dto

import "time"

// MetricsDTO is a rollup over one window. Every figure is recomputed from
// route events, timers and capacity rows.
type MetricsDTO struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	ClosedTimers   int64 `json:"closedTimers"`
	BreachedTimers int64 `json:"breachedTimers"`
	// BreachRate is nil when no timer closed in the window.
	BreachRate *float64 `json:"breachRate"`

	AvgTimeToFirstAssignmentMs *float64 `json:"avgTimeToFirstAssignmentMs"`
	Unassigned                 int64    `json:"unassigned"`

	RuleHits  []RuleHitDTO   `json:"ruleHits"`
	OwnerLoad []OwnerLoadDTO `json:"ownerLoad"`
}

type RuleHitDTO struct {
	RuleID string `json:"ruleId"`
	Kind   string `json:"kind"`
	Hits   int64  `json:"hits"`
}

type OwnerLoadDTO struct {
	OwnerID     string `json:"ownerId"`
	ActiveCount int    `json:"activeCount"`
	MaxCapacity int    `json:"maxCapacity"`
}
