package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/logger"
	"github.com/hatch-crm/hatch/internal/shared/version"
)

// RuleFile is the YAML seed format:
//
//	version: v1.0.0
//	rules:
//	  - object: opportunities
//	    name: big deals
//	    dsl:
//	      when: "amount >= 50000"
//	      assign: {type: static_owner, ownerId: U1}
type RuleFile struct {
	Version string     `yaml:"version"`
	Rules   []RuleSpec `yaml:"rules"`
}

// RuleSpec is one rule in a seed file. DSL may be a mapping or a JSON string.
type RuleSpec struct {
	Object string `yaml:"object"`
	Name   string `yaml:"name"`
	Family string `yaml:"family"`
	Active *bool  `yaml:"active"`
	DSL    any    `yaml:"dsl"`
}

// ImportRulesCommand carries the raw YAML document.
type ImportRulesCommand struct {
	OrgID string
	Data  []byte
	// SkipExisting treats a name conflict as already imported.
	SkipExisting bool
}

// ImportFailure reports one rejected entry.
type ImportFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

type ImportRulesResult struct {
	Created []string        `json:"created"`
	Skipped []string        `json:"skipped"`
	Failed  []ImportFailure `json:"failed"`
}

// ImportRulesUseCase applies a seed file through the regular create path, so
// a document that fails to parse is rejected exactly as over the API.
type ImportRulesUseCase struct {
	create *CreateRuleUseCase
	logger logger.Interface
}

func NewImportRulesUseCase(create *CreateRuleUseCase, logger logger.Interface) *ImportRulesUseCase {
	return &ImportRulesUseCase{create: create, logger: logger}
}

func (uc *ImportRulesUseCase) Execute(ctx context.Context, cmd ImportRulesCommand) (*ImportRulesResult, error) {
	uc.logger.Infow("executing import rules use case", "bytes", len(cmd.Data))

	var file RuleFile
	if err := yaml.Unmarshal(cmd.Data, &file); err != nil {
		return nil, errors.NewValidationError("invalid rules file", err.Error())
	}
	if err := version.CheckCompatible(file.Version, version.RuleFileSchema); err != nil {
		return nil, errors.NewValidationError("unsupported rules file version", err.Error())
	}
	if len(file.Rules) == 0 {
		return nil, errors.NewValidationError("rules file contains no rules")
	}

	result := &ImportRulesResult{Created: []string{}, Skipped: []string{}, Failed: []ImportFailure{}}
	for i, entry := range file.Rules {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		raw, err := entryDSL(entry.DSL)
		if err != nil {
			result.Failed = append(result.Failed, ImportFailure{Index: i, Name: entry.Name, Error: err.Error()})
			continue
		}
		created, err := uc.create.Execute(ctx, CreateRuleCommand{
			OrgID:  cmd.OrgID,
			Object: entry.Object,
			Name:   entry.Name,
			Family: entry.Family,
			DSL:    raw,
			Active: entry.Active,
		})
		switch {
		case err == nil:
			result.Created = append(result.Created, created.ID)
		case cmd.SkipExisting && errors.IsConflictError(err):
			result.Skipped = append(result.Skipped, entry.Name)
		default:
			result.Failed = append(result.Failed, ImportFailure{Index: i, Name: entry.Name, Error: err.Error()})
		}
	}

	uc.logger.Infow("rules imported",
		"created", len(result.Created), "skipped", len(result.Skipped), "failed", len(result.Failed))
	return result, nil
}

func entryDSL(v any) (json.RawMessage, error) {
	switch d := v.(type) {
	case nil:
		return nil, fmt.Errorf("dsl is required")
	case string:
		return json.RawMessage(d), nil
	default:
		raw, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("dsl is not representable as JSON: %w", err)
		}
		return raw, nil
	}
}
