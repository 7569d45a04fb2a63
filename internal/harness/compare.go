package harness

import "reflect"

// fieldsEqual reports whether the submitted and retrieved field maps
// are logically equal. Store-generated identifier and version never
// appear here; store.Record.Fields already excludes them.
func fieldsEqual(submitted, retrieved map[string]any) bool {
	if len(submitted) != len(retrieved) {
		return false
	}
	for k, sv := range submitted {
		rv, ok := retrieved[k]
		if !ok || !valuesEqual(sv, rv) {
			return false
		}
	}
	return true
}

// valuesEqual compares a submitted value with a retrieved value.
// Handles numeric width coercion: YAML hands back int, the store hands
// back int64, and JSON-sourced datasets hand back float64.
func valuesEqual(a, b any) bool {
	if an, ok := asInt64(a); ok {
		bn, ok := asInt64(b)
		return ok && an == bn
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}

	return reflect.DeepEqual(a, b)
}

// asInt64 normalizes integral values to int64.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}
