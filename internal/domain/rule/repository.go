package rule

import (
	"context"
	"time"
)

// Repository persists rules. Ordered reads use (createdAt, id) ascending.
type Repository interface {
	Create(ctx context.Context, r *Rule) error
	// Update writes r only when the stored version equals expectedVersion,
	// returning ErrVersionConflict otherwise.
	Update(ctx context.Context, r *Rule, expectedVersion int) error
	GetByID(ctx context.Context, ruleID string) (*Rule, error)
	List(ctx context.Context, filter ListFilter) ([]*Rule, error)
	// ListActive returns active rules of one family in evaluation order.
	ListActive(ctx context.Context, orgID, object string, family Family) ([]*Rule, error)
	ExistsByName(ctx context.Context, orgID, object, name, excludeID string) (bool, error)

	AppendRevision(ctx context.Context, rev *Revision) error
	ListRevisions(ctx context.Context, ruleID string) ([]*Revision, error)
}

// ListFilter selects one page of rules. Deleted rules are included unless
// ActiveOnly is set.
type ListFilter struct {
	OrgID      string
	Object     string
	Family     Family
	ActiveOnly bool
	// keyset position of the last item on the previous page
	AfterCreatedAt time.Time
	AfterID        string
	Limit          int
}
