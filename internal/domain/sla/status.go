package sla

import "fmt"

// Status is the state of an SLA timer.
type Status string

const (
	StatusGreen     Status = "GREEN"
	StatusAmber     Status = "AMBER"
	StatusRed       Status = "RED"
	StatusBreached  Status = "BREACHED"
	StatusResolved  Status = "RESOLVED"
	StatusCancelled Status = "CANCELLED"
)

var severity = map[Status]int{
	StatusGreen:    0,
	StatusAmber:    1,
	StatusRed:      2,
	StatusBreached: 3,
}

func (s Status) IsValid() bool {
	_, running := severity[s]
	return running || s.IsTerminal()
}

func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

// Severity orders running statuses; terminal statuses return -1.
func (s Status) Severity() int {
	if v, ok := severity[s]; ok {
		return v
	}
	return -1
}

// Max returns the more severe of two running statuses.
func Max(a, b Status) Status {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid sla status %q", s)
	}
	return st, nil
}

// RunningStatuses lists the non-terminal statuses in severity order.
func RunningStatuses() []Status {
	return []Status{StatusGreen, StatusAmber, StatusRed, StatusBreached}
}
