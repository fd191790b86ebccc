package openapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	internalmodel "github.com/goliatone/go-formkit/internal/model"
)

const (
	extensionNamespace = "x-formgen"
	gridHintKey        = "grid"
)

// Violation is an unsupported or malformed x-formgen extension.
type Violation struct {
	Location string
	Message  string
}

func (v Violation) String() string {
	return v.Location + " -> " + v.Message
}

// Lint reports x-formgen extensions the form builder would ignore, walking
// every operation that carries a request body. Results are sorted by
// location.
func Lint(doc *openapi3.T) []Violation {
	var out []Violation
	for _, op := range Operations(doc) {
		base := []string{"operation", op.ID}
		out = append(out, lintExtensions(base, op.Op.Extensions)...)
		out = append(out, lintSchema(append(base, "requestBody"), requestSchema(op.Op), map[*openapi3.Schema]bool{})...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Location == out[j].Location {
			return out[i].Message < out[j].Message
		}
		return out[i].Location < out[j].Location
	})
	return out
}

func lintSchema(path []string, ref *openapi3.SchemaRef, seen map[*openapi3.Schema]bool) []Violation {
	if ref == nil || ref.Value == nil || seen[ref.Value] {
		return nil
	}
	seen[ref.Value] = true
	defer delete(seen, ref.Value)

	src := ref.Value
	out := lintExtensions(path, src.Extensions)
	for _, name := range sortedNames(src.Properties) {
		out = append(out, lintSchema(appendPath(path, "properties."+name), src.Properties[name], seen)...)
	}
	if src.Items != nil {
		out = append(out, lintSchema(appendPath(path, "items"), src.Items, seen)...)
	}
	for i, member := range src.AllOf {
		out = append(out, lintSchema(appendPath(path, fmt.Sprintf("allOf.%d", i)), member, seen)...)
	}
	return out
}

func lintExtensions(path []string, extensions map[string]any) []Violation {
	keys := make([]string, 0, len(extensions))
	for key := range extensions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []Violation
	for _, key := range keys {
		value := extensions[key]
		switch {
		case key == extensionNamespace:
			nested, ok := value.(map[string]any)
			if !ok {
				out = append(out, violation(path, "%s must be an object, found %T", extensionNamespace, value))
				continue
			}
			nestedKeys := make([]string, 0, len(nested))
			for nestedKey := range nested {
				nestedKeys = append(nestedKeys, nestedKey)
			}
			sort.Strings(nestedKeys)
			for _, nestedKey := range nestedKeys {
				out = append(out, lintHint(appendPath(path, nestedKey), nestedKey, nested[nestedKey])...)
			}
		case strings.HasPrefix(key, extensionNamespace+"-"):
			out = append(out, lintHint(path, strings.TrimPrefix(key, extensionNamespace+"-"), value)...)
		}
	}
	return out
}

func lintHint(path []string, key string, value any) []Violation {
	if key == "" {
		return []Violation{violation(path, "extension key is empty")}
	}
	if key == gridHintKey {
		return lintGrid(path, value)
	}
	if !internalmodel.IsAllowedUIHintKey(key) {
		supported := append(internalmodel.AllowedUIHintKeys(), gridHintKey)
		sort.Strings(supported)
		return []Violation{violation(path, "unsupported UI extension key %q (supported: %s)", key, strings.Join(supported, ", "))}
	}
	if _, ok := internalmodel.CanonicalizeExtensionValue(value); !ok {
		return []Violation{violation(path, "value for %q must be a string, number, or boolean (got %T)", key, value)}
	}
	return nil
}

func lintGrid(path []string, value any) []Violation {
	grid, ok := value.(map[string]any)
	if !ok {
		return []Violation{violation(path, "grid must be an object, found %T", value)}
	}
	var out []Violation
	for _, key := range []string{"row", "span", "start"} {
		raw, present := grid[key]
		if !present {
			continue
		}
		if n, ok := raw.(float64); !ok || n < 1 || n != float64(int(n)) {
			out = append(out, violation(appendPath(path, gridHintKey), "%s must be a positive integer (got %v)", key, raw))
		}
	}
	for key := range grid {
		if key != "row" && key != "span" && key != "start" {
			out = append(out, violation(appendPath(path, gridHintKey), "unsupported grid key %q", key))
		}
	}
	return out
}

func violation(path []string, format string, args ...any) Violation {
	return Violation{Location: strings.Join(path, " > "), Message: fmt.Sprintf(format, args...)}
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	return append(next, segment)
}
