package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/hatch-crm/hatch/internal/shared/constants"
)

// RuleModel stores one validation or assignment rule. Deleted rules keep
// their row with DeletedAt set and Active cleared.
type RuleModel struct {
	ID        string         `gorm:"primaryKey;size:40"`
	OrgID     string         `gorm:"size:64;not null;index:idx_rules_scope,priority:1"`
	Object    string         `gorm:"size:64;not null;index:idx_rules_scope,priority:2"`
	Family    string         `gorm:"size:20;not null;index:idx_rules_scope,priority:3"`
	Name      string         `gorm:"size:200;not null"`
	Active    bool           `gorm:"not null"`
	Version   int            `gorm:"not null;default:1"`
	DSL       datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null;index:idx_rules_scope,priority:4"`
	UpdatedAt time.Time      `gorm:"not null"`
	DeletedAt *time.Time     `gorm:"index"`
}

func (RuleModel) TableName() string {
	return constants.TableRules
}

// RuleRevisionModel is an append-only snapshot of a rule after one write.
type RuleRevisionModel struct {
	ID        string         `gorm:"primaryKey;size:40"`
	RuleID    string         `gorm:"size:40;not null;uniqueIndex:idx_rule_revisions_version,priority:1"`
	Version   int            `gorm:"not null;uniqueIndex:idx_rule_revisions_version,priority:2"`
	Name      string         `gorm:"size:200;not null"`
	Active    bool           `gorm:"not null"`
	Deleted   bool           `gorm:"not null;default:false"`
	DSL       datatypes.JSON `gorm:"not null"`
	ChangedAt time.Time      `gorm:"not null"`
}

func (RuleRevisionModel) TableName() string {
	return constants.TableRuleRevisions
}
