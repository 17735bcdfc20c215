package condition

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Evaluate reports whether n holds for the snapshot. It never fails on data:
// a missing field reads as null and null only satisfies == null and != of a
// non-null literal. The error return covers node types outside the AST.
func Evaluate(n Node, snap Snapshot) (bool, error) {
	switch v := n.(type) {
	case Compare:
		return evalCompare(v, snap.Get(v.Field)), nil
	case In:
		return evalIn(v, snap.Get(v.Field)), nil
	case And:
		for _, child := range v.Children {
			ok, err := Evaluate(child, snap)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported condition node %T", n)
	}
}

func evalCompare(c Compare, value any) bool {
	if list, ok := value.([]any); ok {
		// list fields match when any element matches; != is the negation of ==
		if c.Op == OpNe {
			return !evalCompare(Compare{Field: c.Field, Op: OpEq, Value: c.Value}, value)
		}
		for _, item := range list {
			if compareScalar(item, c.Op, c.Value) {
				return true
			}
		}
		return false
	}
	return compareScalar(value, c.Op, c.Value)
}

func evalIn(n In, value any) bool {
	candidates := []any{value}
	if list, ok := value.([]any); ok {
		candidates = list
	}
	for _, item := range candidates {
		for _, member := range n.Set {
			if equalScalar(item, member) {
				return true
			}
		}
	}
	return false
}

func compareScalar(value any, op Operator, lit Literal) bool {
	switch op {
	case OpEq:
		return equalScalar(value, lit)
	case OpNe:
		return !equalScalar(value, lit)
	}

	if value == nil || lit == nil {
		return false
	}

	cmp, ok := order(value, lit)
	if !ok {
		return false
	}
	switch op {
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	default:
		return false
	}
}

func equalScalar(value any, lit Literal) bool {
	if value == nil || lit == nil {
		return value == nil && lit == nil
	}
	if vb, ok := value.(bool); ok {
		lb, ok := lit.(bool)
		if ok {
			return vb == lb
		}
		return strconv.FormatBool(vb) == stringify(lit)
	}
	cmp, ok := order(value, lit)
	return ok && cmp == 0
}

// order compares value against lit numerically when the literal is a number
// and the value is a number or a numeric-looking string, otherwise as strings.
func order(value any, lit Literal) (int, bool) {
	if lf, ok := lit.(float64); ok {
		if vf, ok := toNumber(value); ok {
			switch {
			case vf < lf:
				return -1, true
			case vf > lf:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	return strings.Compare(stringify(value), stringify(lit)), true
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		if f, ok := toNumber(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprint(v)
	}
}
