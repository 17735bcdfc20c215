package condition

import (
	"reflect"
	"strings"
)

// Snapshot is a record flattened to dotted field paths. Values are scalars
// (string, number, bool, nil) or []any of scalars.
type Snapshot map[string]any

// Get returns the value at path, nil when the path is missing.
func (s Snapshot) Get(path string) any {
	return s[path]
}

// IsBlank reports whether the field is missing, null or a whitespace-only string.
func (s Snapshot) IsBlank(path string) bool {
	v, ok := s[path]
	if !ok || v == nil {
		return true
	}
	if str, ok := v.(string); ok {
		return strings.TrimSpace(str) == ""
	}
	return false
}

// Flatten converts a nested record into a Snapshot. Nested objects become
// dotted paths; slices become []any.
func Flatten(record map[string]any) Snapshot {
	out := make(Snapshot, len(record))
	flattenInto(out, "", record)
	return out
}

func flattenInto(out Snapshot, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flattenInto(out, key, t)
		case []any:
			out[key] = t
		default:
			out[key] = normalize(v)
		}
	}
}

func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		list := make([]any, rv.Len())
		for i := range list {
			list[i] = rv.Index(i).Interface()
		}
		return list
	}
	return v
}
