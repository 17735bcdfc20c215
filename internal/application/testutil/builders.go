package testutil

import (
	"testing"
	"time"

	"github.com/hatch-crm/hatch/internal/domain/rule"
	"github.com/hatch-crm/hatch/internal/shared/logger"
)

// BaseTime is a fixed instant used by fixtures.
var BaseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// NewRule builds an active rule or fails the test. Creation times step by one
// second per sequence number so evaluation order is stable.
func NewRule(t testing.TB, seq int, ruleID, object, name string, family rule.Family, dsl string) *rule.Rule {
	t.Helper()
	r, err := rule.NewRule(ruleID, "org1", object, name, family, []byte(dsl), true, BaseTime.Add(time.Duration(seq)*time.Second))
	if err != nil {
		t.Fatalf("build rule %s: %v", ruleID, err)
	}
	return r
}

// NewMockLogger returns a logger that discards output.
func NewMockLogger() logger.Interface {
	return logger.Discard()
}
