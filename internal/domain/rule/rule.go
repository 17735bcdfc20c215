// Package rule holds validation and assignment rules, their compiled
// policies and revision history.
package rule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrRuleNotFound    = errors.New("rule not found")
	ErrVersionConflict = errors.New("rule was modified concurrently")
)

// Rule is an operator-authored policy scoped by organization and object type.
type Rule struct {
	id        string
	orgID     string
	object    string
	name      string
	family    Family
	active    bool
	version   int
	dsl       []byte
	policy    *Policy
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewRule validates and compiles a new rule. A family left empty is inferred
// from the document.
func NewRule(ruleID, orgID, object, name string, family Family, dsl []byte, active bool, now time.Time) (*Rule, error) {
	if ruleID == "" {
		return nil, fmt.Errorf("rule ID is required")
	}
	orgID, object, name = strings.TrimSpace(orgID), strings.TrimSpace(object), strings.TrimSpace(name)
	if orgID == "" {
		return nil, fmt.Errorf("org ID is required")
	}
	if object == "" {
		return nil, fmt.Errorf("object is required")
	}
	if name == "" {
		return nil, fmt.Errorf("rule name is required")
	}
	if len(name) > 200 {
		return nil, fmt.Errorf("rule name exceeds maximum length of 200 characters")
	}
	if family == "" {
		family = InferFamily(dsl)
	}

	policy, err := CompileDSL(family, dsl)
	if err != nil {
		return nil, err
	}
	normalized, err := NormalizeDSL(dsl)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Rule{
		id:        ruleID,
		orgID:     orgID,
		object:    object,
		name:      name,
		family:    family,
		active:    active,
		version:   1,
		dsl:       normalized,
		policy:    policy,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructRule rebuilds a persisted rule and recompiles its document.
func ReconstructRule(
	ruleID, orgID, object, name string,
	family Family,
	active bool,
	version int,
	dsl []byte,
	createdAt, updatedAt time.Time,
	deletedAt *time.Time,
) (*Rule, error) {
	if ruleID == "" {
		return nil, fmt.Errorf("rule ID is required")
	}
	policy, err := CompileDSL(family, dsl)
	if err != nil {
		return nil, fmt.Errorf("stored rule %s no longer compiles: %w", ruleID, err)
	}
	return &Rule{
		id:        ruleID,
		orgID:     orgID,
		object:    object,
		name:      name,
		family:    family,
		active:    active,
		version:   version,
		dsl:       dsl,
		policy:    policy,
		createdAt: createdAt,
		updatedAt: updatedAt,
		deletedAt: deletedAt,
	}, nil
}

func (r *Rule) ID() string            { return r.id }
func (r *Rule) OrgID() string         { return r.orgID }
func (r *Rule) Object() string        { return r.object }
func (r *Rule) Name() string          { return r.name }
func (r *Rule) Family() Family        { return r.family }
func (r *Rule) IsActive() bool        { return r.active }
func (r *Rule) Version() int          { return r.version }
func (r *Rule) DSL() []byte           { return r.dsl }
func (r *Rule) Policy() *Policy       { return r.policy }
func (r *Rule) CreatedAt() time.Time  { return r.createdAt }
func (r *Rule) UpdatedAt() time.Time  { return r.updatedAt }
func (r *Rule) DeletedAt() *time.Time { return r.deletedAt }
func (r *Rule) IsDeleted() bool       { return r.deletedAt != nil }

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name   *string
	DSL    []byte
	Active *bool
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.DSL == nil && p.Active == nil
}

// Apply validates and applies a patch, bumping the version. The rule is left
// untouched when the patch is rejected.
func (r *Rule) Apply(p Patch, now time.Time) error {
	if r.IsDeleted() {
		return ErrRuleNotFound
	}
	if p.IsEmpty() {
		return fmt.Errorf("patch has no fields to update")
	}

	name := r.name
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
		if name == "" {
			return fmt.Errorf("rule name is required")
		}
		if len(name) > 200 {
			return fmt.Errorf("rule name exceeds maximum length of 200 characters")
		}
	}

	dsl, policy := r.dsl, r.policy
	if p.DSL != nil {
		compiled, err := CompileDSL(r.family, p.DSL)
		if err != nil {
			return err
		}
		normalized, err := NormalizeDSL(p.DSL)
		if err != nil {
			return err
		}
		dsl, policy = normalized, compiled
	}

	r.name = name
	r.dsl = dsl
	r.policy = policy
	if p.Active != nil {
		r.active = *p.Active
	}
	r.touch(now)
	return nil
}

// SoftDelete deactivates the rule and stamps deletedAt. Deleting twice is a no-op.
func (r *Rule) SoftDelete(now time.Time) bool {
	if r.IsDeleted() {
		return false
	}
	t := now.UTC()
	r.active = false
	r.deletedAt = &t
	r.touch(now)
	return true
}

func (r *Rule) touch(now time.Time) {
	r.version++
	r.updatedAt = now.UTC()
}

// Revision snapshots a rule after one write.
type Revision struct {
	ID        string
	RuleID    string
	Version   int
	Name      string
	Active    bool
	Deleted   bool
	DSL       []byte
	ChangedAt time.Time
}

// NewRevision records the current state of r.
func NewRevision(revisionID string, r *Rule) *Revision {
	return &Revision{
		ID:        revisionID,
		RuleID:    r.id,
		Version:   r.version,
		Name:      r.name,
		Active:    r.active,
		Deleted:   r.IsDeleted(),
		DSL:       r.dsl,
		ChangedAt: r.updatedAt,
	}
}
