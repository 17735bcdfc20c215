// Package condition implements the rule condition language: a closed set of
// AST nodes, a parser for the text form and an evaluator over flattened
// record snapshots.
package condition

import (
	"strconv"
	"strings"
)

// Operator is a comparison operator accepted by Compare.
type Operator string

const (
	OpEq  Operator = "=="
	OpNe  Operator = "!="
	OpGte Operator = ">="
	OpLte Operator = "<="
	OpGt  Operator = ">"
	OpLt  Operator = "<"
)

var validOperators = map[Operator]bool{
	OpEq: true, OpNe: true, OpGte: true, OpLte: true, OpGt: true, OpLt: true,
}

func (o Operator) IsValid() bool {
	return validOperators[o]
}

// Literal is a parsed scalar: nil, string, float64 or bool.
type Literal = any

// Node is a condition AST node. The set of implementations is closed.
type Node interface {
	node()
	String() string
}

// Compare tests one field against one literal.
type Compare struct {
	Field string
	Op    Operator
	Value Literal
}

// In tests whether a field, or any element of a list field, is in Set.
type In struct {
	Field string
	Set   []Literal
}

// And is true when every child is true.
type And struct {
	Children []Node
}

func (Compare) node() {}
func (In) node()      {}
func (And) node()     {}

func (c Compare) String() string {
	return c.Field + " " + string(c.Op) + " " + formatLiteral(c.Value)
}

func (n In) String() string {
	parts := make([]string, len(n.Set))
	for i, v := range n.Set {
		parts[i] = formatLiteral(v)
	}
	return n.Field + " in [" + strings.Join(parts, ", ") + "]"
}

func (a And) String() string {
	parts := make([]string, len(a.Children))
	for i, c := range a.Children {
		parts[i] = c.String()
	}
	return strings.Join(parts, " and ")
}

// Fields lists every field path referenced by n, in order of appearance.
func Fields(n Node) []string {
	switch v := n.(type) {
	case Compare:
		return []string{v.Field}
	case In:
		return []string{v.Field}
	case And:
		var out []string
		for _, c := range v.Children {
			out = append(out, Fields(c)...)
		}
		return out
	default:
		return nil
	}
}

func formatLiteral(v Literal) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return "?"
	}
}
