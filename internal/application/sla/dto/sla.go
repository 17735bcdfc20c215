// Package dto holds the SLA read models.
package dto

// SweepResultDTO reports one sweep pass. Processed counts timers examined,
// not escalations.
type SweepResultDTO struct {
	Processed int `json:"processed"`
	Advanced  int `json:"advanced"`
	Escalated int `json:"escalated"`
	Failed    int `json:"failed"`
}

// DashboardDTO counts live timers by status. AvgTimeToAssignMs is nil when
// no assignment in the window carried a latency.
type DashboardDTO struct {
	Green             int64    `json:"green"`
	Amber             int64    `json:"amber"`
	Red               int64    `json:"red"`
	Breached          int64    `json:"breached"`
	AvgTimeToAssignMs *float64 `json:"avgTimeToAssign"`
}
