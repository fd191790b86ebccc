package schema

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Coerce performs the type check for node. It returns the canonical value
// (numbers as float64, enum values as declared, sequences as []any) and false
// when v does not fit the node kind. Numeric strings are accepted for number
// nodes only. Callers handle nil themselves; Coerce reports nil as invalid.
func Coerce(node Node, v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch n := node.(type) {
	case *StringNode:
		s, ok := v.(string)
		return s, ok
	case *JSONNode:
		s, ok := v.(string)
		return s, ok
	case *NumberNode:
		if s, ok := v.(string); ok {
			trimmed := strings.TrimSpace(s)
			if trimmed == "" {
				return nil, false
			}
			f, err := strconv.ParseFloat(trimmed, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, false
			}
			return f, true
		}
		f, ok := ToFloat(v)
		if !ok {
			return nil, false
		}
		return f, true
	case *BooleanNode:
		b, ok := v.(bool)
		return b, ok
	case *EnumNode:
		for _, allowed := range n.Values {
			if EqualValues(allowed, v) {
				return allowed, true
			}
		}
		return nil, false
	case *ObjectNode:
		return toObject(v)
	case *ArrayNode:
		return ToSlice(v)
	default:
		panic(unsupported(node))
	}
}

// IsEmpty reports whether v counts as "no value": nil, a blank string or an
// empty collection.
func IsEmpty(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case []any:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ToFloat converts Go numeric values (and json.Number-like values) to float64.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case interface{ Float64() (float64, error) }:
		value, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = value
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToSlice converts any slice or array to []any.
func ToSlice(v any) ([]any, bool) {
	if typed, ok := v.([]any); ok {
		return typed, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func toObject(v any) (map[string]any, bool) {
	switch typed := v.(type) {
	case map[string]any:
		return typed, true
	case map[string]string:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = value
		}
		return out, true
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			name, ok := key.(string)
			if !ok {
				return nil, false
			}
			out[name] = value
		}
		return out, true
	default:
		return nil, false
	}
}

// EqualValues compares two scalar values, treating every numeric type as a
// float64 so 3, int64(3) and 3.0 match.
func EqualValues(a, b any) bool {
	if fa, ok := ToFloat(a); ok {
		if fb, ok := ToFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// Normalize rewrites numeric leaves of a decoded value to float64 so values
// from YAML (int) and JSON (float64) compare equal.
func Normalize(v any) any {
	switch typed := v.(type) {
	case nil, string, bool, float64:
		return typed
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = Normalize(value)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = Normalize(value)
		}
		return out
	}
	if f, ok := ToFloat(v); ok {
		return f
	}
	if obj, ok := toObject(v); ok {
		return Normalize(obj)
	}
	return v
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatInt(value int) string {
	return strconv.Itoa(value)
}

func toInt(v any) (int, bool) {
	f, ok := ToFloat(v)
	if !ok {
		if s, isString := v.(string); isString {
			parsed, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return 0, false
			}
			return parsed, true
		}
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func describe(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", v)
}
