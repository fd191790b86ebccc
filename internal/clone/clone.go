// Package clone deep-copies decoded value trees.
package clone

import (
	deepcopy "github.com/tiendc/go-deepcopy"
)

// Value returns a deep copy of v. Values that cannot be copied are returned
// as-is.
func Value(v any) any {
	if v == nil {
		return nil
	}
	var out any
	if err := deepcopy.Copy(&out, &v); err != nil {
		return v
	}
	return out
}

// Map returns a deep copy of m. A nil map stays nil.
func Map(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	if err := deepcopy.Copy(&out, &m); err != nil {
		out = make(map[string]any, len(m))
		for key, value := range m {
			out[key] = value
		}
	}
	return out
}
