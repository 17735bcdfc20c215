package usecases

import (
	"context"
	"errors"

	"github.com/hatch-crm/hatch/internal/domain/condition"
	"github.com/hatch-crm/hatch/internal/domain/rule"
	apperrors "github.com/hatch-crm/hatch/internal/shared/errors"
)

// TxRunner runs fn in one database transaction carried by the context.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// mapRuleError translates a domain validation failure. Parse errors become
// invalid_dsl with the offending fragment; anything else is a plain
// validation error.
func mapRuleError(err error) error {
	if pe, ok := condition.AsParseError(err); ok {
		return apperrors.NewInvalidDSLError(pe.Error(), pe.Fragment)
	}
	if errors.Is(err, rule.ErrRuleNotFound) {
		return err
	}
	return apperrors.NewValidationError(err.Error())
}

// loadRule fetches a rule visible to orgID. Deleted rules are returned so
// callers can decide how to treat them.
func loadRule(ctx context.Context, repo rule.Repository, orgID, ruleID string) (*rule.Rule, error) {
	r, err := repo.GetByID(ctx, ruleID)
	if errors.Is(err, rule.ErrRuleNotFound) {
		return nil, apperrors.NewRuleNotFoundError(ruleID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load rule")
	}
	if orgID != "" && r.OrgID() != orgID {
		return nil, apperrors.NewRuleNotFoundError(ruleID)
	}
	return r, nil
}
