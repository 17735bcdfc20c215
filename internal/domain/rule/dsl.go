package rule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hatch-crm/hatch/internal/domain/condition"
)

// Family separates transition-gating rules from routing rules.
type Family string

const (
	FamilyValidation Family = "validation"
	FamilyAssignment Family = "assignment"
)

func (f Family) IsValid() bool {
	return f == FamilyValidation || f == FamilyAssignment
}

// ActionKind is the effect of an assignment rule.
type ActionKind string

const (
	ActionStaticOwner      ActionKind = "static_owner"
	ActionLeastLoadedQueue ActionKind = "least_loaded_queue"
)

// ValidationDSL is the wire form of a validation rule.
type ValidationDSL struct {
	If           string   `json:"if"`
	ThenRequired []string `json:"then_required"`
}

// AssignmentDSL is the wire form of an assignment rule.
type AssignmentDSL struct {
	When   string     `json:"when"`
	Assign AssignSpec `json:"assign"`
}

type AssignSpec struct {
	Type    ActionKind `json:"type"`
	OwnerID string     `json:"ownerId,omitempty"`
	PoolID  string     `json:"poolId,omitempty"`
}

// AssignmentAction is the compiled effect of an assignment rule. Exactly one
// of OwnerID and PoolID is set, matching Kind.
type AssignmentAction struct {
	Kind    ActionKind
	OwnerID string
	PoolID  string
}

// Policy is a compiled rule document.
type Policy struct {
	Condition      condition.Node
	RequiredFields []string
	Action         *AssignmentAction
}

// InferFamily guesses the family from the document keys.
func InferFamily(raw []byte) Family {
	var head map[string]json.RawMessage
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	_, hasIf := head["if"]
	_, hasWhen := head["when"]
	switch {
	case hasIf && !hasWhen:
		return FamilyValidation
	case hasWhen && !hasIf:
		return FamilyAssignment
	default:
		return ""
	}
}

// CompileDSL parses and checks a rule document for the given family. Every
// failure is a *condition.ParseError naming the offending fragment.
func CompileDSL(family Family, raw []byte) (*Policy, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &condition.ParseError{Fragment: "", Pos: -1, Reason: "dsl document is empty"}
	}

	switch family {
	case FamilyValidation:
		var doc ValidationDSL
		if err := decodeStrict(raw, &doc); err != nil {
			return nil, err
		}
		return compileValidation(doc)
	case FamilyAssignment:
		var doc AssignmentDSL
		if err := decodeStrict(raw, &doc); err != nil {
			return nil, err
		}
		return compileAssignment(doc)
	default:
		return nil, &condition.ParseError{Fragment: string(family), Pos: -1, Reason: "unknown rule family"}
	}
}

func decodeStrict(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &condition.ParseError{Fragment: truncate(string(raw), 80), Pos: -1, Reason: err.Error()}
	}
	if dec.More() {
		return &condition.ParseError{Fragment: truncate(string(raw), 80), Pos: -1, Reason: "trailing data after dsl document"}
	}
	return nil
}

func compileValidation(doc ValidationDSL) (*Policy, error) {
	node, err := condition.Parse(doc.If)
	if err != nil {
		return nil, err
	}
	if len(doc.ThenRequired) == 0 {
		return nil, &condition.ParseError{Fragment: "then_required", Pos: -1, Reason: "at least one required field is needed"}
	}
	seen := make(map[string]bool, len(doc.ThenRequired))
	fields := make([]string, 0, len(doc.ThenRequired))
	for _, f := range doc.ThenRequired {
		f = strings.TrimSpace(f)
		if !validFieldPath(f) {
			return nil, &condition.ParseError{Fragment: f, Pos: -1, Reason: "invalid required field path"}
		}
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	return &Policy{Condition: node, RequiredFields: fields}, nil
}

func compileAssignment(doc AssignmentDSL) (*Policy, error) {
	node, err := condition.Parse(doc.When)
	if err != nil {
		return nil, err
	}

	assign := doc.Assign
	action := &AssignmentAction{Kind: assign.Type}
	switch assign.Type {
	case ActionStaticOwner:
		if assign.OwnerID == "" || assign.PoolID != "" {
			return nil, &condition.ParseError{Fragment: "assign", Pos: -1, Reason: "static_owner requires ownerId and no poolId"}
		}
		action.OwnerID = assign.OwnerID
	case ActionLeastLoadedQueue:
		if assign.PoolID == "" || assign.OwnerID != "" {
			return nil, &condition.ParseError{Fragment: "assign", Pos: -1, Reason: "least_loaded_queue requires poolId and no ownerId"}
		}
		action.PoolID = assign.PoolID
	default:
		return nil, &condition.ParseError{Fragment: string(assign.Type), Pos: -1, Reason: "unknown assign type"}
	}
	return &Policy{Condition: node, Action: action}, nil
}

func validFieldPath(p string) bool {
	if p == "" {
		return false
	}
	for _, seg := range strings.Split(p, ".") {
		if seg == "" {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// NormalizeDSL re-encodes a document in compact canonical form.
func NormalizeDSL(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("compact dsl: %w", err)
	}
	return buf.Bytes(), nil
}
